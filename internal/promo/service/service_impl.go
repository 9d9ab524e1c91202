package service

import (
	"time"

	"github.com/tablenest/tablenest/internal/config"
	"github.com/tablenest/tablenest/internal/promo/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Payout *config.PayoutConfigHolder
}

type Service struct {
	log    *zap.Logger
	payout *config.PayoutConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("promo.service"),
		payout: p.Payout,
	}
}

// MultiplierFor returns the first window containing the instant. Windows are
// validated non-overlapping at config load, so first-match is unambiguous.
func (s *Service) MultiplierFor(at time.Time, isPrime bool) int64 {
	if !isPrime {
		return config.BpsOne
	}

	for _, window := range s.payout.Get().PromoWindows {
		if window.Contains(at) {
			s.log.Debug("promo window active",
				zap.String("start", window.StartDate),
				zap.String("end", window.EndDate),
				zap.Int64("multiplier_bps", window.MultiplierBps),
			)
			return window.MultiplierBps
		}
	}
	return config.BpsOne
}
