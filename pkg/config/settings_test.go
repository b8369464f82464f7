package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/pkg/bondingcurve"
)

func TestLoadCurveSettingsDefaults(t *testing.T) {
	s, err := loadCurveSettings("")
	require.NoError(t, err)

	p, err := s.Params()
	require.NoError(t, err)
	want := bondingcurve.DefaultParams()
	assert.Equal(t, want.GrowthRate, p.GrowthRate)
	assert.Equal(t, want.TotalFeeBps(), p.TotalFeeBps())
	assert.Equal(t, want.GraduationThreshold.String(), p.GraduationThreshold.String())
	assert.Equal(t, want.DefaultInitialPrice.String(), p.DefaultInitialPrice.String())
	assert.Equal(t, want.DefaultTotalSupply.String(), p.DefaultTotalSupply.String())

	cfg := s.ServiceConfig()
	assert.Equal(t, uint(3), cfg.MaxTradeTries)
	assert.Equal(t, 20*time.Millisecond, cfg.RetryInterval)
	assert.Equal(t, uint64(25), cfg.DexFeeBps)
	assert.Equal(t, 5*time.Minute, s.RepublishAfter)
}

func TestLoadCurveSettingsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
growth_rate: 4
graduation_threshold: "30"
platform_fee_bps: 80
retry_interval: 50ms
`), 0o600))
	t.Setenv("CURVE_PLATFORM_FEE_BPS", "50")
	t.Setenv("CURVE_RATE_LIMIT_BURST", "3")

	s, err := loadCurveSettings(path)
	require.NoError(t, err)

	p, err := s.Params()
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.GrowthRate)
	assert.Equal(t, uint64(50), p.PlatformFeeBps)
	assert.Equal(t, bondingcurve.Units(30).String(), p.GraduationThreshold.String())
	assert.Equal(t, 50*time.Millisecond, s.RetryInterval)
	assert.Equal(t, 3, s.RateLimiterConfig().Burst)
}

func TestLoadCurveSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"fees too high", map[string]string{"CURVE_PLATFORM_FEE_BPS": "10000"}},
		{"bad threshold", map[string]string{"CURVE_GRADUATION_THRESHOLD": "lots"}},
		{"zero growth", map[string]string{"CURVE_GROWTH_RATE": "0"}},
		{"zero retries", map[string]string{"CURVE_MAX_TRADE_RETRIES": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadCurveSettings("")
			assert.Error(t, err)
		})
	}

	_, err := loadCurveSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
