package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Concierge is a booking agent. Its prime share is PayoutPercentage unless
// the account was onboarded via QR, in which case RevenuePercentage replaces
// it for both regimes.
//
// ReferrerID links to the single upstream concierge that referred this
// account (a chain, never a tree). PartnerID links to a referring partner;
// when set, the referral chain is not rewarded for this account's bookings.
type Concierge struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"not null" json:"name"`
	PayoutPercentage  int64             `gorm:"not null" json:"payout_percentage"`
	IsQRConcierge     bool              `gorm:"column:is_qr_concierge;not null;default:false" json:"is_qr_concierge"`
	RevenuePercentage *int64            `json:"revenue_percentage,omitempty"`
	ReferrerID        *snowflake.ID     `gorm:"index" json:"referrer_id,omitempty"`
	PartnerID         *snowflake.ID     `gorm:"index" json:"partner_id,omitempty"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Concierge) TableName() string { return "concierges" }

// EffectiveRate resolves the concierge's prime share rate, honoring the QR
// override.
func (c Concierge) EffectiveRate() int64 {
	if c.IsQRConcierge && c.RevenuePercentage != nil {
		return *c.RevenuePercentage
	}
	return c.PayoutPercentage
}

// EffectiveBountyRate resolves the non-prime share rate: the QR override if
// present, else the configured default passed by the caller.
func (c Concierge) EffectiveBountyRate(defaultRate int64) int64 {
	if c.IsQRConcierge && c.RevenuePercentage != nil {
		return *c.RevenuePercentage
	}
	return defaultRate
}
