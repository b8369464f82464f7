package bondingcurve

import (
	"errors"
	"fmt"
)

// Errors returned by the pricing engine. They are deterministic rejections of the
// given input against the given state and are never retried here.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientOutput  = errors.New("insufficient output")
	ErrSupplyExceeded      = errors.New("supply exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// ErrGraduated rejects trades on a curve whose liquidity has moved to the DEX.
var ErrGraduated = fmt.Errorf("%w: curve has graduated", ErrInvalidInput)
