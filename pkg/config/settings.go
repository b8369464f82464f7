package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"launchpad/internal/handlers/business"
	"launchpad/internal/middleware"
	"launchpad/pkg/bondingcurve"
	"launchpad/pkg/utils"
)

// CurveSettings are the tunables of the curve market. BNB and token amounts are
// decimal strings ("24", "0.00001").
type CurveSettings struct {
	GrowthRate          float64 `mapstructure:"growth_rate"`
	PlatformFeeBps      uint64  `mapstructure:"platform_fee_bps"`
	CreatorFeeBps       uint64  `mapstructure:"creator_fee_bps"`
	GraduationThreshold string  `mapstructure:"graduation_threshold"`
	LiquidityBps        uint64  `mapstructure:"liquidity_bps"`
	CreatorRewardBps    uint64  `mapstructure:"creator_reward_bps"`
	InitialPrice        string  `mapstructure:"initial_price"`
	TotalSupply         string  `mapstructure:"total_supply"`

	MaxTradeRetries uint          `mapstructure:"max_trade_retries"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	DexFeeBps       uint64        `mapstructure:"dex_fee_bps"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	SnapshotSchedule  string        `mapstructure:"snapshot_schedule"`
	RepublishSchedule string        `mapstructure:"republish_schedule"`
	RepublishAfter    time.Duration `mapstructure:"republish_after"`
}

func defaultSettings() map[string]interface{} {
	p := bondingcurve.DefaultParams()
	return map[string]interface{}{
		"growth_rate":          p.GrowthRate,
		"platform_fee_bps":     p.PlatformFeeBps,
		"creator_fee_bps":      p.CreatorFeeBps,
		"graduation_threshold": utils.FormatAmount(p.GraduationThreshold),
		"liquidity_bps":        p.LiquidityBps,
		"creator_reward_bps":   p.CreatorRewardBps,
		"initial_price":        utils.FormatAmount(p.DefaultInitialPrice),
		"total_supply":         utils.FormatAmount(p.DefaultTotalSupply),
		"max_trade_retries":    3,
		"retry_interval":       20 * time.Millisecond,
		"dex_fee_bps":          25,
		"rate_limit_rps":       5.0,
		"rate_limit_burst":     10,
		"snapshot_schedule":    "0 * * * * *",
		"republish_schedule":   "30 */5 * * * *",
		"republish_after":      5 * time.Minute,
	}
}

// LoadCurveSettings reads the optional yaml file named by CURVE_CONFIG and applies
// CURVE_* environment overrides, e.g. CURVE_PLATFORM_FEE_BPS=50.
func LoadCurveSettings() (*CurveSettings, error) {
	return loadCurveSettings(os.Getenv("CURVE_CONFIG"))
}

func loadCurveSettings(path string) (*CurveSettings, error) {
	v := viper.New()
	for key, value := range defaultSettings() {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read curve config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("CURVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s CurveSettings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode curve config: %w", err)
	}
	if _, err := s.Params(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *CurveSettings) validate() error {
	if s.MaxTradeRetries == 0 {
		return errors.New("max_trade_retries must be at least 1")
	}
	if s.RateLimitRPS <= 0 || s.RateLimitBurst <= 0 {
		return errors.New("rate_limit_rps and rate_limit_burst must be positive")
	}
	if s.DexFeeBps >= bondingcurve.BpsDenominator {
		return errors.New("dex_fee_bps must be below 10000")
	}
	return nil
}

// Params converts the settings into validated engine parameters.
func (s *CurveSettings) Params() (bondingcurve.Params, error) {
	threshold, err := utils.ParseAmount(s.GraduationThreshold)
	if err != nil {
		return bondingcurve.Params{}, fmt.Errorf("graduation_threshold: %w", err)
	}
	price, err := utils.ParseAmount(s.InitialPrice)
	if err != nil {
		return bondingcurve.Params{}, fmt.Errorf("initial_price: %w", err)
	}
	supply, err := utils.ParseAmount(s.TotalSupply)
	if err != nil {
		return bondingcurve.Params{}, fmt.Errorf("total_supply: %w", err)
	}

	p := bondingcurve.Params{
		GrowthRate:          s.GrowthRate,
		PlatformFeeBps:      s.PlatformFeeBps,
		CreatorFeeBps:       s.CreatorFeeBps,
		GraduationThreshold: threshold,
		LiquidityBps:        s.LiquidityBps,
		CreatorRewardBps:    s.CreatorRewardBps,
		DefaultInitialPrice: price,
		DefaultTotalSupply:  supply,
	}
	if err := p.Validate(); err != nil {
		return bondingcurve.Params{}, err
	}
	return p, nil
}

// ServiceConfig returns the trading service settings.
func (s *CurveSettings) ServiceConfig() business.Config {
	return business.Config{
		MaxTradeTries: s.MaxTradeRetries,
		RetryInterval: s.RetryInterval,
		DexFeeBps:     s.DexFeeBps,
	}
}

// RateLimiterConfig returns the per-IP limits of the trade routes.
func (s *CurveSettings) RateLimiterConfig() middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		RequestsPerSecond: s.RateLimitRPS,
		Burst:             s.RateLimitBurst,
	}
}
