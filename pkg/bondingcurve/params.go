package bondingcurve

import (
	"fmt"
	"math/big"
)

const (
	// Decimals is the fixed-point precision of every token and BNB amount.
	Decimals = 18

	// BpsDenominator is the basis point scale used by fee and split settings.
	BpsDenominator = 10000
)

// Params holds the configuration constants of the curve. They are shared by every
// token; per-token values (initial price, supply cap) live in State.
type Params struct {
	GrowthRate          float64  `json:"growth_rate"`
	PlatformFeeBps      uint64   `json:"platform_fee_bps"`
	CreatorFeeBps       uint64   `json:"creator_fee_bps"`
	GraduationThreshold *big.Int `json:"graduation_threshold"`
	LiquidityBps        uint64   `json:"liquidity_bps"`
	CreatorRewardBps    uint64   `json:"creator_reward_bps"`
	DefaultInitialPrice *big.Int `json:"default_initial_price"`
	DefaultTotalSupply  *big.Int `json:"default_total_supply"`
}

// Unit returns 10^Decimals.
func Unit() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
}

// Units converts a whole amount into fixed-point units.
func Units(whole int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), Unit())
}

// DefaultParams returns the launchpad defaults: k = 5, 1% platform fee, 0.25% creator fee,
// graduation at 24 BNB, 80% of raised BNB to the DEX pool and 5% to the creator.
func DefaultParams() Params {
	// 0.00001 BNB per token
	initialPrice := new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals-5), nil)

	return Params{
		GrowthRate:          5,
		PlatformFeeBps:      100,
		CreatorFeeBps:       25,
		GraduationThreshold: Units(24),
		LiquidityBps:        8000,
		CreatorRewardBps:    500,
		DefaultInitialPrice: initialPrice,
		DefaultTotalSupply:  Units(1_000_000_000),
	}
}

// TotalFeeBps is the combined fee charged on each trade.
func (p Params) TotalFeeBps() uint64 {
	return p.PlatformFeeBps + p.CreatorFeeBps
}

// Validate checks the parameters for values the curve cannot price with.
func (p Params) Validate() error {
	if p.GrowthRate <= 0 {
		return fmt.Errorf("%w: growth rate must be positive, got %v", ErrInvalidInput, p.GrowthRate)
	}
	if p.TotalFeeBps() >= BpsDenominator {
		return fmt.Errorf("%w: total fee %d bps must be below %d", ErrInvalidInput, p.TotalFeeBps(), BpsDenominator)
	}
	if p.LiquidityBps+p.CreatorRewardBps > BpsDenominator {
		return fmt.Errorf("%w: graduation split %d+%d bps exceeds %d",
			ErrInvalidInput, p.LiquidityBps, p.CreatorRewardBps, BpsDenominator)
	}
	if p.GraduationThreshold == nil || p.GraduationThreshold.Sign() <= 0 {
		return fmt.Errorf("%w: graduation threshold must be positive", ErrInvalidInput)
	}
	if p.DefaultInitialPrice == nil || p.DefaultInitialPrice.Sign() <= 0 {
		return fmt.Errorf("%w: default initial price must be positive", ErrInvalidInput)
	}
	if p.DefaultTotalSupply == nil || p.DefaultTotalSupply.Sign() <= 0 {
		return fmt.Errorf("%w: default total supply must be positive", ErrInvalidInput)
	}
	return nil
}
