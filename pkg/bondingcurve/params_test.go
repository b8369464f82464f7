package bondingcurve

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
		valid  bool
	}{
		{"defaults", func(p *Params) {}, true},
		{"zero growth", func(p *Params) { p.GrowthRate = 0 }, false},
		{"fees at 100%", func(p *Params) { p.PlatformFeeBps = 9000; p.CreatorFeeBps = 1000 }, false},
		{"split over 100%", func(p *Params) { p.LiquidityBps = 9600 }, false},
		{"missing threshold", func(p *Params) { p.GraduationThreshold = nil }, false},
		{"zero price", func(p *Params) { p.DefaultInitialPrice = big.NewInt(0) }, false},
		{"negative supply", func(p *Params) { p.DefaultTotalSupply = big.NewInt(-1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, uint64(125), p.TotalFeeBps())
	assert.Equal(t, "10000000000000", p.DefaultInitialPrice.String())
	assert.Equal(t, "1000000000000000000000000000", p.DefaultTotalSupply.String())
}
