package utils

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"0.1", "100000000000000000", false},
		{"1", "1000000000000000000", false},
		{" 24 ", "24000000000000000000", false},
		{"0.000000000000000001", "1", false},
		{"0", "0", false},
		{"0.0000000000000000001", "", true},
		{"-1", "", true},
		{"abc", "", true},
		{"", "", true},
		{"1e3", "1000000000000000000000", false},
		{"1e59", "1" + strings.Repeat("0", 77), false},
		{"1e60", "", true},
		{"1e2000000", "", true},
		{"1e-2000000", "", true},
		{strings.Repeat("1", 61), "", true},
		{"0." + strings.Repeat("0", 100) + "1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmountHugeExponentReturnsQuickly(t *testing.T) {
	start := time.Now()
	for _, in := range []string{"1e2000000", "9e999999999", "1e-999999999"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestParseOptionalAmount(t *testing.T) {
	v, err := ParseOptionalAmount("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseOptionalAmount("2")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", v.String())
}

func TestFormatAmount(t *testing.T) {
	v, _ := new(big.Int).SetString("97515625000000000", 10)
	assert.Equal(t, "0.097515625", FormatAmount(v))
	assert.Equal(t, "0", FormatAmount(nil))
	assert.Equal(t, "0", FormatAmount(new(big.Int)))
	assert.Equal(t, "1000000000", FormatAmount(new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1e18))))
}
