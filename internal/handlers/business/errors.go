package business

import (
	"errors"
	"fmt"

	"launchpad/pkg/bondingcurve"
)

var (
	ErrCurveNotFound      = errors.New("token curve not found")
	ErrCurveExists        = errors.New("token curve already exists")
	ErrGraduationNotFound = errors.New("graduation not found")
	ErrNotGraduated       = errors.New("token curve has not graduated")
	ErrConcurrentUpdate   = errors.New("token curve was updated concurrently")
	ErrTraderBalance      = errors.New("trader balance too low")

	ErrInvalidAddress = fmt.Errorf("%w: invalid address", bondingcurve.ErrInvalidInput)
)
