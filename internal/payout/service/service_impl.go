package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/tablenest/tablenest/internal/booking/domain"
	"github.com/tablenest/tablenest/internal/clock"
	conciergedomain "github.com/tablenest/tablenest/internal/concierge/domain"
	"github.com/tablenest/tablenest/internal/config"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
	"github.com/tablenest/tablenest/internal/lock"
	"github.com/tablenest/tablenest/internal/observability/metrics"
	"github.com/tablenest/tablenest/internal/payout/domain"
	promodomain "github.com/tablenest/tablenest/internal/promo/domain"
	referraldomain "github.com/tablenest/tablenest/internal/referral/domain"
	venuedomain "github.com/tablenest/tablenest/internal/venue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	RegimePrime    = "prime"
	RegimeNonPrime = "non_prime"

	distributionLockTTL = 10 * time.Second
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Node   *snowflake.Node
	Clock  clock.Clock
	Payout *config.PayoutConfigHolder

	BookingRepo   bookingdomain.Repository
	VenueRepo     venuedomain.Repository
	ConciergeRepo conciergedomain.Repository
	EarningRepo   earningdomain.Repository

	Referrals referraldomain.Service
	Promos    promodomain.Service

	Locker  *lock.Locker     `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	node   *snowflake.Node
	clock  clock.Clock
	payout *config.PayoutConfigHolder

	bookingRepo   bookingdomain.Repository
	venueRepo     venuedomain.Repository
	conciergeRepo conciergedomain.Repository
	earningRepo   earningdomain.Repository

	referrals referraldomain.Service
	promos    promodomain.Service

	locker  *lock.Locker
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payout.service"),
		node:          p.Node,
		clock:         p.Clock,
		payout:        p.Payout,
		bookingRepo:   p.BookingRepo,
		venueRepo:     p.VenueRepo,
		conciergeRepo: p.ConciergeRepo,
		earningRepo:   p.EarningRepo,
		referrals:     p.Referrals,
		promos:        p.Promos,
		locker:        p.Locker,
		metrics:       p.Metrics,
	}
}

func (s *Service) Distribute(ctx context.Context, bookingID string) (domain.DistributeResponse, error) {
	return s.distribute(ctx, bookingID, nil)
}

func (s *Service) DistributePrime(ctx context.Context, bookingID string) (domain.DistributeResponse, error) {
	prime := true
	return s.distribute(ctx, bookingID, &prime)
}

func (s *Service) DistributeNonPrime(ctx context.Context, bookingID string) (domain.DistributeResponse, error) {
	prime := false
	return s.distribute(ctx, bookingID, &prime)
}

func (s *Service) distribute(ctx context.Context, bookingID string, requirePrime *bool) (domain.DistributeResponse, error) {
	id, err := snowflake.ParseString(bookingID)
	if err != nil {
		return domain.DistributeResponse{}, fmt.Errorf("%w: %q", domain.ErrBookingNotFound, bookingID)
	}

	// The lock only fences racing retries; correctness does not depend on
	// it, so a lock backend error degrades to unlocked operation.
	if s.locker != nil {
		key := fmt.Sprintf("payout:booking:%s", id)
		token, acquired, lockErr := s.locker.TryLock(ctx, key, distributionLockTTL)
		if lockErr != nil {
			s.log.Warn("distribution lock unavailable", zap.String("booking_id", id.String()), zap.Error(lockErr))
		} else if !acquired {
			return domain.DistributeResponse{}, domain.ErrDistributionInProgress
		} else {
			defer func() {
				if releaseErr := s.locker.Release(ctx, key, token); releaseErr != nil {
					s.log.Warn("distribution lock release failed", zap.String("booking_id", id.String()), zap.Error(releaseErr))
				}
			}()
		}
	}

	booking, err := s.bookingRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.DistributeResponse{}, err
	}
	if booking == nil {
		return domain.DistributeResponse{}, domain.ErrBookingNotFound
	}
	if requirePrime != nil && booking.IsPrime != *requirePrime {
		return domain.DistributeResponse{}, domain.ErrRegimeMismatch
	}
	if booking.Status != bookingdomain.BookingStatusFinalized {
		return domain.DistributeResponse{}, fmt.Errorf("%w: status %s", domain.ErrBookingNotFinalized, booking.Status)
	}

	regime := regimeLabel(booking.IsPrime)

	if booking.DistributedAt != nil {
		s.metrics.RecordDistributionRetry(ctx, regime)
		s.log.Info("distribution already completed",
			zap.String("booking_id", booking.ID.String()),
			zap.String("regime", regime),
		)
		return s.buildResponse(ctx, booking, true)
	}

	dist, err := s.calculate(ctx, booking)
	if err != nil {
		return domain.DistributeResponse{}, err
	}

	if err := earningdomain.ValidateConservation(dist.FeeBase, dist.PlatformEarnings, dist.Amounts()); err != nil {
		s.metrics.RecordConservationFailure(ctx, regime)
		s.log.Error("conservation check failed",
			zap.String("booking_id", booking.ID.String()),
			zap.String("regime", regime),
			zap.Error(err),
		)
		return domain.DistributeResponse{}, err
	}

	now := s.clock.Now()
	var inserted int

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range dist.Lines {
			ok, insertErr := s.earningRepo.Insert(ctx, tx, &earningdomain.Earning{
				ID:          s.node.Generate(),
				BookingID:   booking.ID,
				Role:        line.Role,
				RecipientID: line.RecipientID,
				Amount:      line.Amount,
				CreatedAt:   now,
			})
			if insertErr != nil {
				return insertErr
			}
			if ok {
				inserted++
			}
		}

		// All rows already present means a prior run crashed between the
		// ledger write and the summary write; rewrite the summary. Anything
		// in between is a corrupted ledger and aborts the transaction.
		if inserted > 0 && inserted < len(dist.Lines) {
			return fmt.Errorf("%w: %d of %d rows pre-existing", earningdomain.ErrPartialLedger, len(dist.Lines)-inserted, len(dist.Lines))
		}

		summary := bookingdomain.Summary{
			VenueEarnings:     dist.VenueEarnings,
			ConciergeEarnings: dist.ConciergeEarnings,
			PlatformEarnings:  dist.PlatformEarnings,
			DistributedAt:     now,
		}
		if dist.PartnerConcierge != nil {
			summary.PartnerConciergeID = &dist.PartnerConcierge.ID
			summary.PartnerConciergeFee = &dist.PartnerConcierge.Fee
		}
		if dist.PartnerVenue != nil {
			summary.PartnerVenueID = &dist.PartnerVenue.ID
			summary.PartnerVenueFee = &dist.PartnerVenue.Fee
		}
		return s.bookingRepo.UpdateSummary(ctx, tx, booking.ID, summary)
	})
	if err != nil {
		return domain.DistributeResponse{}, err
	}

	already := inserted == 0
	if already {
		s.metrics.RecordDistributionRetry(ctx, regime)
	} else {
		s.metrics.RecordDistribution(ctx, regime)
		s.metrics.RecordEarningRows(ctx, regime, inserted)
	}

	s.log.Info("distribution completed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("regime", regime),
		zap.Int("rows_written", inserted),
		zap.Int64("platform_earnings", dist.PlatformEarnings),
		zap.Bool("already_distributed", already),
	)

	refreshed, err := s.bookingRepo.FindByID(ctx, s.db, booking.ID)
	if err != nil {
		return domain.DistributeResponse{}, err
	}
	if refreshed == nil {
		return domain.DistributeResponse{}, domain.ErrBookingNotFound
	}
	return s.buildResponse(ctx, refreshed, already)
}

// calculate resolves the booking's stakeholders and runs the pure split for
// its regime.
func (s *Service) calculate(ctx context.Context, booking *bookingdomain.Booking) (domain.Distribution, error) {
	venue, err := s.venueRepo.FindByID(ctx, s.db, booking.VenueID)
	if err != nil {
		return domain.Distribution{}, err
	}
	if venue == nil {
		return domain.Distribution{}, fmt.Errorf("%w: %s", domain.ErrVenueNotFound, booking.VenueID)
	}
	concierge, err := s.conciergeRepo.FindByID(ctx, s.db, booking.ConciergeID)
	if err != nil {
		return domain.Distribution{}, err
	}
	if concierge == nil {
		return domain.Distribution{}, fmt.Errorf("%w: %s", domain.ErrConciergeNotFound, booking.ConciergeID)
	}

	resolution, err := s.referrals.ResolveConcierge(ctx, concierge)
	if err != nil {
		return domain.Distribution{}, err
	}
	venuePartner, err := s.referrals.ResolveVenue(ctx, venue)
	if err != nil {
		return domain.Distribution{}, err
	}

	payoutCfg := s.payout.Get()
	residual := domain.ResidualShares{
		ReferralLevel1Percentage: payoutCfg.ReferralLevel1Percentage,
		ReferralLevel2Percentage: payoutCfg.ReferralLevel2Percentage,
		MaxPartnerPercentage:     payoutCfg.MaxPartnerPercentage,
	}
	if resolution.Partner != nil {
		residual.ConciergePartner = &domain.PartnerRef{ID: resolution.Partner.ID, Percentage: resolution.Partner.Percentage}
	}
	if resolution.Level1 != nil {
		residual.ReferralLevel1 = &domain.ReferralRef{ID: resolution.Level1.ID}
	}
	if resolution.Level2 != nil {
		residual.ReferralLevel2 = &domain.ReferralRef{ID: resolution.Level2.ID}
	}
	if venuePartner != nil {
		residual.VenuePartner = &domain.PartnerRef{ID: venuePartner.ID, Percentage: venuePartner.Percentage}
	}

	if booking.IsPrime {
		return domain.CalculatePrime(domain.PrimeInput{
			BookingID:          booking.ID,
			VenueID:            venue.ID,
			ConciergeID:        concierge.ID,
			TotalFee:           booking.TotalFee,
			VenuePercentage:    venue.PayoutVenuePercentage,
			ConciergeRate:      concierge.EffectiveRate(),
			PromoMultiplierBps: s.promos.MultiplierFor(booking.BookedAt, true),
			ResidualShares:     residual,
		})
	}

	return domain.CalculateNonPrime(domain.NonPrimeInput{
		BookingID:          booking.ID,
		VenueID:            venue.ID,
		ConciergeID:        concierge.ID,
		FeePerHead:         venue.NonPrimeFeePerHead,
		GuestCount:         booking.GuestCount,
		ConciergeRate:      concierge.EffectiveBountyRate(payoutCfg.NonPrime.ConciergePercentage),
		MarkupPercentage:   payoutCfg.NonPrime.MarkupPercentage,
		PlatformPercentage: payoutCfg.NonPrime.PlatformPercentage,
		ResidualShares:     residual,
	})
}

func (s *Service) buildResponse(ctx context.Context, booking *bookingdomain.Booking, already bool) (domain.DistributeResponse, error) {
	earnings, err := s.earningRepo.ListByBooking(ctx, s.db, booking.ID)
	if err != nil {
		return domain.DistributeResponse{}, err
	}

	entries := make([]domain.EntryView, 0, len(earnings))
	for _, e := range earnings {
		entries = append(entries, domain.EntryView{
			ID:          e.ID.String(),
			BookingID:   e.BookingID.String(),
			Role:        e.Role,
			RecipientID: e.RecipientID.String(),
			Amount:      e.Amount,
			CreatedAt:   e.CreatedAt,
		})
	}

	feeBase := int64(0)
	if booking.IsPrime {
		feeBase = booking.TotalFee
	}
	var distributedAt time.Time
	if booking.DistributedAt != nil {
		distributedAt = *booking.DistributedAt
	}

	return domain.DistributeResponse{
		BookingID:          booking.ID.String(),
		Regime:             regimeLabel(booking.IsPrime),
		AlreadyDistributed: already,
		FeeBase:            feeBase,
		VenueEarnings:      booking.VenueEarnings,
		ConciergeEarnings:  booking.ConciergeEarnings,
		PlatformEarnings:   booking.PlatformEarnings,
		DistributedAt:      distributedAt,
		Entries:            entries,
	}, nil
}

func regimeLabel(isPrime bool) string {
	if isPrime {
		return RegimePrime
	}
	return RegimeNonPrime
}
