package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusFinalized BookingStatus = "finalized"
	BookingStatusCanceled  BookingStatus = "canceled"
)

// Booking is the finalized reservation record the engine consumes. The
// summary fields (earnings, partner fees, distributed_at) are written once
// per distribution pass; everything else is immutable after finalization.
type Booking struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	VenueID     snowflake.ID  `gorm:"not null;index" json:"venue_id"`
	ConciergeID snowflake.ID  `gorm:"not null;index" json:"concierge_id"`
	Status      BookingStatus `gorm:"type:text;not null" json:"status"`
	IsPrime     bool          `gorm:"not null" json:"is_prime"`
	TotalFee    int64         `gorm:"not null" json:"total_fee"`
	GuestCount  int           `gorm:"not null" json:"guest_count"`
	BookedAt    time.Time     `gorm:"not null" json:"booked_at"`

	VenueEarnings     int64 `gorm:"not null;default:0" json:"venue_earnings"`
	ConciergeEarnings int64 `gorm:"not null;default:0" json:"concierge_earnings"`
	PlatformEarnings  int64 `gorm:"not null;default:0" json:"platform_earnings"`

	PartnerConciergeID  *snowflake.ID `json:"partner_concierge_id,omitempty"`
	PartnerConciergeFee *int64        `json:"partner_concierge_fee,omitempty"`
	PartnerVenueID      *snowflake.ID `json:"partner_venue_id,omitempty"`
	PartnerVenueFee     *int64        `json:"partner_venue_fee,omitempty"`

	DistributedAt *time.Time `json:"distributed_at,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// Summary carries the aggregate earnings written back to the booking after a
// distribution pass.
type Summary struct {
	VenueEarnings     int64
	ConciergeEarnings int64
	PlatformEarnings  int64

	PartnerConciergeID  *snowflake.ID
	PartnerConciergeFee *int64
	PartnerVenueID      *snowflake.ID
	PartnerVenueFee     *int64

	DistributedAt time.Time
}
