package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tablenest/tablenest/internal/partner/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, partner *domain.Partner) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO partners (id, name, percentage, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		partner.ID,
		partner.Name,
		partner.Percentage,
		partner.Metadata,
		partner.CreatedAt,
		partner.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Partner, error) {
	var partner domain.Partner
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, percentage, metadata, created_at, updated_at
		 FROM partners WHERE id = ?`,
		id,
	).Scan(&partner).Error
	if err != nil {
		return nil, err
	}
	if partner.ID == 0 {
		return nil, nil
	}
	return &partner, nil
}
