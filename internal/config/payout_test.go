package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePayoutConfig_Defaults(t *testing.T) {
	assert.NoError(t, ValidatePayoutConfig(DefaultPayoutConfig()))
}

func TestValidatePayoutConfig_Ranges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PayoutConfig)
	}{
		{"referral level 1 over 100", func(c *PayoutConfig) { c.ReferralLevel1Percentage = 101 }},
		{"referral level 2 negative", func(c *PayoutConfig) { c.ReferralLevel2Percentage = -1 }},
		{"partner cap zero", func(c *PayoutConfig) { c.MaxPartnerPercentage = 0 }},
		{"non-prime concierge zero", func(c *PayoutConfig) { c.NonPrime.ConciergePercentage = 0 }},
		{"non-prime markup negative", func(c *PayoutConfig) { c.NonPrime.MarkupPercentage = -5 }},
		{"non-prime platform over 100", func(c *PayoutConfig) { c.NonPrime.PlatformPercentage = 150 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPayoutConfig()
			tc.mutate(&cfg)
			assert.Error(t, ValidatePayoutConfig(cfg))
		})
	}
}

func TestValidatePayoutConfig_PromoWindows(t *testing.T) {
	cfg := DefaultPayoutConfig()
	cfg.PromoWindows = []PromoWindow{
		{StartDate: "2026-01-01", EndDate: "2026-01-31", MultiplierBps: 15000},
		{StartDate: "2026-02-01", EndDate: "2026-02-14", MultiplierBps: 12000},
	}
	assert.NoError(t, ValidatePayoutConfig(cfg))

	cfg.PromoWindows = append(cfg.PromoWindows, PromoWindow{
		StartDate: "2026-01-20", EndDate: "2026-02-05", MultiplierBps: 11000,
	})
	assert.Error(t, ValidatePayoutConfig(cfg), "overlapping windows must be rejected")

	cfg.PromoWindows = []PromoWindow{
		{StartDate: "2026-01-01", EndDate: "2026-01-31", MultiplierBps: 9000},
	}
	assert.Error(t, ValidatePayoutConfig(cfg), "multiplier below 1.0 must be rejected")

	cfg.PromoWindows = []PromoWindow{
		{StartDate: "not-a-date", EndDate: "2026-01-31", MultiplierBps: 15000},
	}
	assert.Error(t, ValidatePayoutConfig(cfg))
}

func TestPromoWindowContains(t *testing.T) {
	w := PromoWindow{StartDate: "2026-03-01", EndDate: "2026-03-31", MultiplierBps: 15000}

	start, end, err := w.Bounds()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), end)

	assert.True(t, w.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)), "end date is inclusive")
	assert.False(t, w.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)))
}
