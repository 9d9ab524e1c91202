package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// RoleType identifies which stakeholder a ledger row pays (or charges). The
// set is closed: adding a role means touching every exhaustive switch below,
// which is the point.
type RoleType string

const (
	RoleVenue              RoleType = "venue"
	RoleConcierge          RoleType = "concierge"
	RoleVenuePaid          RoleType = "venue_paid"
	RoleConciergeBounty    RoleType = "concierge_bounty"
	RolePartnerVenue       RoleType = "partner_venue"
	RolePartnerConcierge   RoleType = "partner_concierge"
	RoleConciergeReferral1 RoleType = "concierge_referral_1"
	RoleConciergeReferral2 RoleType = "concierge_referral_2"
)

func (r RoleType) Valid() bool {
	switch r {
	case RoleVenue, RoleConcierge, RoleVenuePaid, RoleConciergeBounty,
		RolePartnerVenue, RolePartnerConcierge,
		RoleConciergeReferral1, RoleConciergeReferral2:
		return true
	}
	return false
}

// Earning is one stakeholder's immutable share of one booking's fee.
// Uniqueness on (booking_id, role_type) is the idempotence invariant:
// re-running a distribution can never duplicate a role's row.
type Earning struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	BookingID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_earnings_booking_role,priority:1" json:"booking_id"`
	Role        RoleType     `gorm:"column:role_type;type:text;not null;uniqueIndex:ux_earnings_booking_role,priority:2" json:"role_type"`
	RecipientID snowflake.ID `gorm:"not null;index" json:"recipient_id"`
	Amount      int64        `gorm:"not null" json:"amount"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Earning) TableName() string { return "earnings" }

var (
	ErrInvalidRole     = errors.New("invalid_role_type")
	ErrInvalidBooking  = errors.New("invalid_booking")
	ErrBookingNotFound = errors.New("booking_not_found")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrPartialLedger   = errors.New("partial_ledger")
	ErrNotConservative = errors.New("earnings_not_conservative")
)

// ValidateConservation checks the split against the fee base before anything
// is written: the signed sum of all ledger amounts plus the platform residual
// must equal the base exactly. The base is the total fee for prime bookings
// and zero for non-prime bookings, where the incentive flow is a zero-sum
// transfer funded by the venue.
func ValidateConservation(feeBase, platformEarnings int64, amounts []int64) error {
	sum := platformEarnings
	for _, amount := range amounts {
		sum += amount
	}
	if sum != feeBase {
		return fmt.Errorf("%w: entries+platform=%d, fee base=%d", ErrNotConservative, sum, feeBase)
	}
	return nil
}
