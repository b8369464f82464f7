package bondingcurve

import (
	"math/big"

	"github.com/ALTree/bigfloat"
)

// floatPrec is the mantissa precision used for every intermediate value. At 256 bits the
// arithmetic error is far below one fixed-point unit, so the only error that reaches the
// caller is the final floor to integer units.
const floatPrec = 256

var unitFloat = new(big.Float).SetPrec(floatPrec).SetInt(Unit())

func newFloat() *big.Float {
	return new(big.Float).SetPrec(floatPrec)
}

// toWhole converts fixed-point units into a whole-number float.
func toWhole(v *big.Int) *big.Float {
	f := newFloat().SetInt(v)
	return f.Quo(f, unitFloat)
}

// floorUnits converts a whole-number float back into fixed-point units, rounding down.
// Negative values floor to zero.
func floorUnits(f *big.Float) *big.Int {
	if f.Sign() <= 0 {
		return new(big.Int)
	}
	scaled := newFloat().Mul(f, unitFloat)
	out, _ := scaled.Int(nil)
	return out
}

// ceilUnits is floorUnits rounded up.
func ceilUnits(f *big.Float) *big.Int {
	if f.Sign() <= 0 {
		return new(big.Int)
	}
	scaled := newFloat().Mul(f, unitFloat)
	out, acc := scaled.Int(nil)
	if acc == big.Below {
		out.Add(out, big.NewInt(1))
	}
	return out
}

func exp(x *big.Float) *big.Float {
	return bigfloat.Exp(newFloat().Set(x))
}

func ln(x *big.Float) *big.Float {
	return bigfloat.Log(newFloat().Set(x))
}

// bps returns floor(amount * bps / 10000).
func bps(amount *big.Int, points uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(points))
	return out.Quo(out, big.NewInt(BpsDenominator))
}
