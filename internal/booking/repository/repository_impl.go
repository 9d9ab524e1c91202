package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tablenest/tablenest/internal/booking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bookings (id, venue_id, concierge_id, status, is_prime, total_fee, guest_count, booked_at, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.VenueID,
		booking.ConciergeID,
		booking.Status,
		booking.IsPrime,
		booking.TotalFee,
		booking.GuestCount,
		booking.BookedAt,
		booking.Metadata,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var booking domain.Booking
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&booking).Error
	if err != nil {
		return nil, err
	}
	if booking.ID == 0 {
		return nil, nil
	}
	return &booking, nil
}

func (r *repo) UpdateSummary(ctx context.Context, db *gorm.DB, id snowflake.ID, summary domain.Summary) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET venue_earnings = ?,
		     concierge_earnings = ?,
		     platform_earnings = ?,
		     partner_concierge_id = ?,
		     partner_concierge_fee = ?,
		     partner_venue_id = ?,
		     partner_venue_fee = ?,
		     distributed_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		summary.VenueEarnings,
		summary.ConciergeEarnings,
		summary.PlatformEarnings,
		summary.PartnerConciergeID,
		summary.PartnerConciergeFee,
		summary.PartnerVenueID,
		summary.PartnerVenueFee,
		summary.DistributedAt,
		time.Now().UTC(),
		id,
	).Error
}
