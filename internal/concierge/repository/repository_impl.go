package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tablenest/tablenest/internal/concierge/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, concierge *domain.Concierge) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO concierges (id, name, payout_percentage, is_qr_concierge, revenue_percentage, referrer_id, partner_id, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		concierge.ID,
		concierge.Name,
		concierge.PayoutPercentage,
		concierge.IsQRConcierge,
		concierge.RevenuePercentage,
		concierge.ReferrerID,
		concierge.PartnerID,
		concierge.Metadata,
		concierge.CreatedAt,
		concierge.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Concierge, error) {
	var concierge domain.Concierge
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, payout_percentage, is_qr_concierge, revenue_percentage, referrer_id, partner_id, metadata, created_at, updated_at
		 FROM concierges WHERE id = ?`,
		id,
	).Scan(&concierge).Error
	if err != nil {
		return nil, err
	}
	if concierge.ID == 0 {
		return nil, nil
	}
	return &concierge, nil
}
