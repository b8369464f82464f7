package utils

import (
	"errors"
	"math/big"

	"launchpad/pkg/bondingcurve"
)

var ErrInsufficientLiquidity = errors.New("insufficient liquidity")

// SimulateConstantProductAmountOut returns the output of swapping amountIn on an x*y=k pool.
// inputType "x" swaps x for y, "y" swaps y for x. The fee is taken from the input.
func SimulateConstantProductAmountOut(amountIn *big.Int, inputType string, x, y *big.Int, feeBps uint64) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	in, out, err := orderReserves(inputType, x, y)
	if err != nil {
		return nil, err
	}

	withFee := afterFee(amountIn, feeBps)

	// dy = y * dx / (x + dx)
	num := new(big.Int).Mul(out, withFee)
	den := new(big.Int).Add(in, withFee)
	return num.Quo(num, den), nil
}

// SimulateConstantProductAmountIn returns the input needed to receive amountOut from an x*y=k pool.
// outputType "y" receives y for x, "x" receives x for y.
func SimulateConstantProductAmountIn(amountOut *big.Int, outputType string, x, y *big.Int, feeBps uint64) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	inputType := "x"
	if outputType == "x" {
		inputType = "y"
	} else if outputType != "y" {
		return nil, ErrInvalidAmount
	}
	in, out, err := orderReserves(inputType, x, y)
	if err != nil {
		return nil, err
	}
	if amountOut.Cmp(out) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	// dx = ceil(x * dy / (y - dy)), then gross up for the fee
	num := new(big.Int).Mul(in, amountOut)
	den := new(big.Int).Sub(out, amountOut)
	dx := ceilDiv(num, den)

	keep := big.NewInt(int64(bondingcurve.BpsDenominator - feeBps))
	return ceilDiv(dx.Mul(dx, big.NewInt(bondingcurve.BpsDenominator)), keep), nil
}

func orderReserves(inputType string, x, y *big.Int) (in, out *big.Int, err error) {
	if x == nil || y == nil || x.Sign() <= 0 || y.Sign() <= 0 {
		return nil, nil, ErrInsufficientLiquidity
	}
	switch inputType {
	case "x":
		return x, y, nil
	case "y":
		return y, x, nil
	default:
		return nil, nil, ErrInvalidAmount
	}
}

func afterFee(amount *big.Int, feeBps uint64) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(bondingcurve.BpsDenominator-feeBps)))
	return out.Quo(out, big.NewInt(bondingcurve.BpsDenominator))
}

func ceilDiv(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
