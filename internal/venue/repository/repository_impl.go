package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tablenest/tablenest/internal/venue/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, venue *domain.Venue) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO venues (id, name, payout_venue_percentage, non_prime_fee_per_head, partner_id, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		venue.ID,
		venue.Name,
		venue.PayoutVenuePercentage,
		venue.NonPrimeFeePerHead,
		venue.PartnerID,
		venue.Metadata,
		venue.CreatedAt,
		venue.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Venue, error) {
	var venue domain.Venue
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, payout_venue_percentage, non_prime_fee_per_head, partner_id, metadata, created_at, updated_at
		 FROM venues WHERE id = ?`,
		id,
	).Scan(&venue).Error
	if err != nil {
		return nil, err
	}
	if venue.ID == 0 {
		return nil, nil
	}
	return &venue, nil
}
