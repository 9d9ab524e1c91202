package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, concierge *Concierge) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Concierge, error)
}
