package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/tablenest/tablenest/internal/booking/domain"
	"github.com/tablenest/tablenest/internal/earning/domain"
	"github.com/tablenest/tablenest/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPageSize = 50

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        domain.Repository
	BookingRepo bookingdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	bookingRepo bookingdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("earning.service"),
		repo:        p.Repo,
		bookingRepo: p.BookingRepo,
	}
}

func (s *Service) GetBookingEarnings(ctx context.Context, bookingID string) (domain.BookingEarningsResponse, error) {
	id, err := snowflake.ParseString(bookingID)
	if err != nil {
		return domain.BookingEarningsResponse{}, fmt.Errorf("%w: %q", domain.ErrBookingNotFound, bookingID)
	}

	booking, err := s.bookingRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.BookingEarningsResponse{}, err
	}
	if booking == nil {
		return domain.BookingEarningsResponse{}, domain.ErrBookingNotFound
	}

	entries, err := s.repo.ListByBooking(ctx, s.db, id)
	if err != nil {
		return domain.BookingEarningsResponse{}, err
	}
	total, err := s.repo.SumByBooking(ctx, s.db, id)
	if err != nil {
		return domain.BookingEarningsResponse{}, err
	}

	regime := "non_prime"
	if booking.IsPrime {
		regime = "prime"
	}

	return domain.BookingEarningsResponse{
		BookingID:         booking.ID.String(),
		Regime:            regime,
		VenueEarnings:     booking.VenueEarnings,
		ConciergeEarnings: booking.ConciergeEarnings,
		PlatformEarnings:  booking.PlatformEarnings,
		DistributedAt:     booking.DistributedAt,
		Entries:           entries,
		EntriesTotal:      total,
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{Role: req.Role}

	if req.BookingID != "" {
		id, err := snowflake.ParseString(req.BookingID)
		if err != nil {
			return domain.ListResponse{}, fmt.Errorf("%w: %q", domain.ErrInvalidBooking, req.BookingID)
		}
		filter.BookingID = id
	}
	if req.RecipientID != "" {
		id, err := snowflake.ParseString(req.RecipientID)
		if err != nil {
			return domain.ListResponse{}, fmt.Errorf("invalid recipient id %q: %w", req.RecipientID, err)
		}
		filter.RecipientID = id
	}

	page := req.Page
	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}

	earnings, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(earnings, int32(page.PageSize), func(e *domain.Earning) string {
		token, encodeErr := pagination.EncodeCursor(pagination.Cursor{ID: e.ID.String()})
		if encodeErr != nil {
			return ""
		}
		return token
	})
	if len(earnings) > page.PageSize {
		earnings = earnings[:page.PageSize]
	}

	return domain.ListResponse{Earnings: earnings, PageInfo: pageInfo}, nil
}
