package config

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BpsOne is the basis-point representation of a 1.0 multiplier.
const BpsOne int64 = 10_000

const promoDateLayout = "2006-01-02"

// PayoutConfig is the externally configured percentage table consumed by the
// earnings calculators. All rates are whole percents; promotional multipliers
// are basis points so the engine never touches floating point.
type PayoutConfig struct {
	ReferralLevel1Percentage int64 `mapstructure:"referralLevel1Percentage"`
	ReferralLevel2Percentage int64 `mapstructure:"referralLevel2Percentage"`
	MaxPartnerPercentage     int64 `mapstructure:"maxPartnerPercentage"`

	NonPrime NonPrimePayoutConfig `mapstructure:"nonPrime"`

	PromoWindows []PromoWindow `mapstructure:"promoWindows"`
}

// NonPrimePayoutConfig holds the bounty-regime percentages. These have
// drifted across environments historically, so they are never hardcoded in
// the calculators.
type NonPrimePayoutConfig struct {
	ConciergePercentage int64 `mapstructure:"conciergePercentage"`
	MarkupPercentage    int64 `mapstructure:"markupPercentage"`
	PlatformPercentage  int64 `mapstructure:"platformPercentage"`
}

// PromoWindow is a date range during which prime concierge earnings are
// multiplied. Dates are inclusive, UTC.
type PromoWindow struct {
	StartDate     string `mapstructure:"startDate"`
	EndDate       string `mapstructure:"endDate"`
	MultiplierBps int64  `mapstructure:"multiplierBps"`
}

// Bounds parses the window into [start, end) instants in UTC. The end date is
// inclusive, so the exclusive bound is the following midnight.
func (w PromoWindow) Bounds() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(promoDateLayout, strings.TrimSpace(w.StartDate), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid promo start date %q: %w", w.StartDate, err)
	}
	end, err := time.ParseInLocation(promoDateLayout, strings.TrimSpace(w.EndDate), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid promo end date %q: %w", w.EndDate, err)
	}
	end = end.AddDate(0, 0, 1)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("promo window %s..%s is empty", w.StartDate, w.EndDate)
	}
	return start, end, nil
}

// Contains reports whether the instant falls inside the window.
func (w PromoWindow) Contains(at time.Time) bool {
	start, end, err := w.Bounds()
	if err != nil {
		return false
	}
	at = at.UTC()
	return !at.Before(start) && at.Before(end)
}

func DefaultPayoutConfig() PayoutConfig {
	return PayoutConfig{
		ReferralLevel1Percentage: 10,
		ReferralLevel2Percentage: 5,
		MaxPartnerPercentage:     20,
		NonPrime: NonPrimePayoutConfig{
			ConciergePercentage: 80,
			MarkupPercentage:    10,
			PlatformPercentage:  30,
		},
	}
}

// PayoutConfigHolder serves the current payout table to the calculators and
// hot-reloads it when the underlying file changes. Invalid reloads keep the
// last good table.
type PayoutConfigHolder struct {
	current atomic.Value // holds PayoutConfig
}

func NewPayoutConfigHolder() (*PayoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("payout")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tablenest/config") // Volume-mounted config
	v.AddConfigPath("/etc/tablenest")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("TABLENEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPayoutConfig()
		v.SetDefault("payout.referralLevel1Percentage", defaults.ReferralLevel1Percentage)
		v.SetDefault("payout.referralLevel2Percentage", defaults.ReferralLevel2Percentage)
		v.SetDefault("payout.maxPartnerPercentage", defaults.MaxPartnerPercentage)
		v.SetDefault("payout.nonPrime.conciergePercentage", defaults.NonPrime.ConciergePercentage)
		v.SetDefault("payout.nonPrime.markupPercentage", defaults.NonPrime.MarkupPercentage)
		v.SetDefault("payout.nonPrime.platformPercentage", defaults.NonPrime.PlatformPercentage)
	}

	var cfg PayoutConfig
	if err := v.UnmarshalKey("payout", &cfg); err != nil {
		return nil, err
	}
	if err := ValidatePayoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PayoutConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PayoutConfig
		if err := v.UnmarshalKey("payout", &updated); err != nil {
			log.Printf("[payout-config] reload failed: %v", err)
			return
		}
		if err := ValidatePayoutConfig(updated); err != nil {
			log.Printf("[payout-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[payout-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func NewStaticPayoutConfigHolder(cfg PayoutConfig) (*PayoutConfigHolder, error) {
	if err := ValidatePayoutConfig(cfg); err != nil {
		return nil, err
	}
	holder := &PayoutConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

func (h *PayoutConfigHolder) Get() PayoutConfig {
	return h.current.Load().(PayoutConfig)
}

func ValidatePayoutConfig(cfg PayoutConfig) error {
	if cfg.ReferralLevel1Percentage < 0 || cfg.ReferralLevel1Percentage > 100 {
		return fmt.Errorf("payout.referralLevel1Percentage out of range: %d", cfg.ReferralLevel1Percentage)
	}
	if cfg.ReferralLevel2Percentage < 0 || cfg.ReferralLevel2Percentage > 100 {
		return fmt.Errorf("payout.referralLevel2Percentage out of range: %d", cfg.ReferralLevel2Percentage)
	}
	if cfg.MaxPartnerPercentage <= 0 || cfg.MaxPartnerPercentage > 100 {
		return fmt.Errorf("payout.maxPartnerPercentage out of range: %d", cfg.MaxPartnerPercentage)
	}
	if cfg.NonPrime.ConciergePercentage <= 0 || cfg.NonPrime.ConciergePercentage > 100 {
		return fmt.Errorf("payout.nonPrime.conciergePercentage out of range: %d", cfg.NonPrime.ConciergePercentage)
	}
	if cfg.NonPrime.MarkupPercentage < 0 || cfg.NonPrime.MarkupPercentage > 100 {
		return fmt.Errorf("payout.nonPrime.markupPercentage out of range: %d", cfg.NonPrime.MarkupPercentage)
	}
	if cfg.NonPrime.PlatformPercentage <= 0 || cfg.NonPrime.PlatformPercentage > 100 {
		return fmt.Errorf("payout.nonPrime.platformPercentage out of range: %d", cfg.NonPrime.PlatformPercentage)
	}
	return validatePromoWindows(cfg.PromoWindows)
}

// Overlapping promo windows are undefined behavior for the multiplier lookup,
// so the whole table is rejected rather than picking a winner at runtime.
func validatePromoWindows(windows []PromoWindow) error {
	type span struct {
		start, end time.Time
	}
	spans := make([]span, 0, len(windows))
	for _, w := range windows {
		if w.MultiplierBps < BpsOne {
			return fmt.Errorf("promo window %s..%s multiplier below 1.0: %d bps", w.StartDate, w.EndDate, w.MultiplierBps)
		}
		start, end, err := w.Bounds()
		if err != nil {
			return err
		}
		spans = append(spans, span{start: start, end: end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
	for i := 1; i < len(spans); i++ {
		if spans[i].start.Before(spans[i-1].end) {
			return errors.New("payout.promoWindows overlap")
		}
	}
	return nil
}
