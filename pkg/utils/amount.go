package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"launchpad/pkg/bondingcurve"
)

var ErrInvalidAmount = errors.New("invalid amount")

const (
	maxAmountLength = 100
	// numeric(78,0) holds 78 digits of units, 60 of them whole digits.
	maxIntegerDigits = 78 - bondingcurve.Decimals
)

// ParseAmount converts a decimal string such as "0.1" into 18-decimal fixed-point units.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if len(s) > maxAmountLength {
		return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidAmount, maxAmountLength)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	exp := int(d.Exponent())
	if exp < -maxAmountLength || len(d.Coefficient().String())+exp > maxIntegerDigits {
		return nil, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, s)
	}

	scaled := d.Shift(bondingcurve.Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidAmount, s, bondingcurve.Decimals)
	}
	return scaled.BigInt(), nil
}

// ParseOptionalAmount is ParseAmount that maps an empty string to nil.
func ParseOptionalAmount(s string) (*big.Int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return ParseAmount(s)
}

// FormatAmount renders fixed-point units as a decimal string. nil renders as "0".
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -bondingcurve.Decimals).String()
}
