package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateConstantProductAmountOut(t *testing.T) {
	x := big.NewInt(1_000_000)
	y := big.NewInt(2_000_000)

	out, err := SimulateConstantProductAmountOut(big.NewInt(1000), "x", x, y, 0)
	require.NoError(t, err)
	// 2_000_000 * 1000 / 1_001_000
	assert.Equal(t, "1998", out.String())

	withFee, err := SimulateConstantProductAmountOut(big.NewInt(1000), "x", x, y, 25)
	require.NoError(t, err)
	assert.Equal(t, -1, withFee.Cmp(out))

	reverse, err := SimulateConstantProductAmountOut(big.NewInt(2000), "y", x, y, 0)
	require.NoError(t, err)
	assert.Equal(t, "999", reverse.String())

	_, err = SimulateConstantProductAmountOut(big.NewInt(1000), "z", x, y, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = SimulateConstantProductAmountOut(big.NewInt(1000), "x", big.NewInt(0), y, 0)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestSimulateConstantProductAmountIn(t *testing.T) {
	x := big.NewInt(1_000_000)
	y := big.NewInt(2_000_000)

	in, err := SimulateConstantProductAmountIn(big.NewInt(1998), "y", x, y, 0)
	require.NoError(t, err)

	out, err := SimulateConstantProductAmountOut(in, "x", x, y, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Cmp(big.NewInt(1998)), 0)

	_, err = SimulateConstantProductAmountIn(y, "y", x, y, 0)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}
