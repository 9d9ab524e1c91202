package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Venue holds the calculator inputs for a restaurant or bar on the platform:
// its prime-time base share and its non-prime per-head incentive fee.
type Venue struct {
	ID                    snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                  string            `gorm:"not null" json:"name"`
	PayoutVenuePercentage int64             `gorm:"not null" json:"payout_venue_percentage"`
	NonPrimeFeePerHead    int64             `gorm:"not null" json:"non_prime_fee_per_head"`
	PartnerID             *snowflake.ID     `gorm:"index" json:"partner_id,omitempty"`
	Metadata              datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt             time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Venue) TableName() string { return "venues" }
