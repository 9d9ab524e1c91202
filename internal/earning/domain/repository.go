package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tablenest/tablenest/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	BookingID   snowflake.ID
	RecipientID snowflake.ID
	Role        RoleType
}

type Repository interface {
	// Insert writes one ledger row and reports whether the row was actually
	// created. A duplicate (booking_id, role_type) is a silent no-op with
	// inserted=false.
	Insert(ctx context.Context, db *gorm.DB, earning *Earning) (bool, error)
	ListByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]*Earning, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Earning, error)
	SumByBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (int64, error)
}
