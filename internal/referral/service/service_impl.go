package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	conciergedomain "github.com/tablenest/tablenest/internal/concierge/domain"
	partnerdomain "github.com/tablenest/tablenest/internal/partner/domain"
	"github.com/tablenest/tablenest/internal/referral/domain"
	venuedomain "github.com/tablenest/tablenest/internal/venue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	ConciergeRepo conciergedomain.Repository
	PartnerRepo   partnerdomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	conciergeRepo conciergedomain.Repository
	partnerRepo   partnerdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("referral.service"),
		conciergeRepo: p.ConciergeRepo,
		partnerRepo:   p.PartnerRepo,
	}
}

func (s *Service) ResolveConcierge(ctx context.Context, concierge *conciergedomain.Concierge) (domain.Resolution, error) {
	if concierge == nil {
		return domain.Resolution{}, nil
	}

	// A referring partner supersedes the referral chain for this account.
	if concierge.PartnerID != nil && *concierge.PartnerID != 0 {
		partner, err := s.partnerRepo.FindByID(ctx, s.db, *concierge.PartnerID)
		if err != nil {
			return domain.Resolution{}, err
		}
		if partner == nil {
			s.log.Warn("concierge references missing partner",
				zap.String("concierge_id", concierge.ID.String()),
				zap.String("partner_id", concierge.PartnerID.String()),
			)
		}
		return domain.Resolution{Partner: partner}, nil
	}

	resolution := domain.Resolution{}
	seen := map[snowflake.ID]struct{}{concierge.ID: {}}
	current := concierge

	for depth := 1; depth <= domain.MaxChainDepth; depth++ {
		if current.ReferrerID == nil || *current.ReferrerID == 0 {
			break
		}
		if _, cycled := seen[*current.ReferrerID]; cycled {
			s.log.Warn("referral chain cycle detected",
				zap.String("concierge_id", concierge.ID.String()),
				zap.String("referrer_id", current.ReferrerID.String()),
			)
			break
		}

		referrer, err := s.conciergeRepo.FindByID(ctx, s.db, *current.ReferrerID)
		if err != nil {
			return domain.Resolution{}, err
		}
		if referrer == nil {
			break
		}

		switch depth {
		case 1:
			resolution.Level1 = referrer
		case 2:
			resolution.Level2 = referrer
		}

		seen[referrer.ID] = struct{}{}
		current = referrer
	}

	return resolution, nil
}

func (s *Service) ResolveVenue(ctx context.Context, venue *venuedomain.Venue) (*partnerdomain.Partner, error) {
	if venue == nil || venue.PartnerID == nil || *venue.PartnerID == 0 {
		return nil, nil
	}
	return s.partnerRepo.FindByID(ctx, s.db, *venue.PartnerID)
}
