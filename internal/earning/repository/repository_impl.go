package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tablenest/tablenest/internal/earning/domain"
	pkgdb "github.com/tablenest/tablenest/pkg/db"
	"github.com/tablenest/tablenest/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, earning *domain.Earning) (bool, error) {
	if !earning.Role.Valid() {
		return false, domain.ErrInvalidRole
	}
	if earning.BookingID == 0 {
		return false, domain.ErrInvalidBooking
	}

	result := db.WithContext(ctx).Exec(
		`INSERT INTO earnings (id, booking_id, role_type, recipient_id, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (booking_id, role_type) DO NOTHING`,
		earning.ID,
		earning.BookingID,
		earning.Role,
		earning.RecipientID,
		earning.Amount,
		earning.CreatedAt,
	)
	if result.Error != nil {
		// Dialects that reject the conflict clause surface the duplicate as a
		// unique-constraint error instead; same outcome, row already present.
		if pkgdb.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]*domain.Earning, error) {
	var earnings []*domain.Earning
	err := db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("role_type asc").
		Find(&earnings).Error
	if err != nil {
		return nil, err
	}
	return earnings, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Earning, error) {
	stmt := db.WithContext(ctx).Model(&domain.Earning{})
	if filter.BookingID != 0 {
		stmt = stmt.Where("booking_id = ?", filter.BookingID)
	}
	if filter.RecipientID != 0 {
		stmt = stmt.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.Role != "" {
		if !filter.Role.Valid() {
			return nil, domain.ErrInvalidRole
		}
		stmt = stmt.Where("role_type = ?", filter.Role)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.ID != "" {
			id, err := snowflake.ParseString(cursor.ID)
			if err != nil {
				return nil, err
			}
			stmt = stmt.Where("id < ?", id)
		}
	}

	pageSize := page.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var earnings []*domain.Earning
	err := stmt.
		Order("id desc").
		Limit(pageSize + 1).
		Find(&earnings).Error
	if err != nil {
		return nil, err
	}
	return earnings, nil
}

func (r *repo) SumByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (int64, error) {
	var sum struct {
		Total int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) AS total FROM earnings WHERE booking_id = ?`,
		bookingID,
	).Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum.Total, nil
}
