package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
)

var (
	ErrBookingNotFound        = errors.New("booking_not_found")
	ErrBookingNotFinalized    = errors.New("booking_not_finalized")
	ErrVenueNotFound          = errors.New("venue_not_found")
	ErrConciergeNotFound      = errors.New("concierge_not_found")
	ErrRegimeMismatch         = errors.New("booking_regime_mismatch")
	ErrDistributionInProgress = errors.New("distribution_in_progress")
	ErrInvalidFee             = errors.New("invalid_fee")
	ErrInvalidGuestCount      = errors.New("invalid_guest_count")
	ErrInvalidRate            = errors.New("invalid_rate")
	ErrInvalidMultiplier      = errors.New("invalid_multiplier")
)

// PartnerRef is the minimal partner view the calculators need.
type PartnerRef struct {
	ID         snowflake.ID
	Percentage int64
}

// ReferralRef identifies one concierge in the rewarded referral chain.
type ReferralRef struct {
	ID snowflake.ID
}

// ResidualShares are the inputs common to both regimes for carving partner
// commissions and referral rewards out of the platform's slice. Partner
// commission supersedes the referral chain on the concierge side, so a
// non-nil ConciergePartner means the referral levels are ignored.
type ResidualShares struct {
	ConciergePartner *PartnerRef
	VenuePartner     *PartnerRef

	ReferralLevel1 *ReferralRef
	ReferralLevel2 *ReferralRef

	ReferralLevel1Percentage int64
	ReferralLevel2Percentage int64
	MaxPartnerPercentage     int64
}

// PrimeInput carries everything the prime calculator needs. Rates are whole
// percents; the promo multiplier is basis points.
type PrimeInput struct {
	BookingID   snowflake.ID
	VenueID     snowflake.ID
	ConciergeID snowflake.ID

	TotalFee           int64
	VenuePercentage    int64
	ConciergeRate      int64
	PromoMultiplierBps int64

	ResidualShares
}

// NonPrimeInput carries everything the bounty calculator needs. The fee base
// is FeePerHead*GuestCount, funded by the venue rather than the guest.
type NonPrimeInput struct {
	BookingID   snowflake.ID
	VenueID     snowflake.ID
	ConciergeID snowflake.ID

	FeePerHead         int64
	GuestCount         int
	ConciergeRate      int64
	MarkupPercentage   int64
	PlatformPercentage int64

	ResidualShares
}

// Line is one pending ledger row. Amounts are signed minor units; non-prime
// venue charges are negative.
type Line struct {
	Role        earningdomain.RoleType
	RecipientID snowflake.ID
	Amount      int64
}

// PartnerShare is a partner commission carved out of a distribution, echoed
// onto the booking summary.
type PartnerShare struct {
	ID  snowflake.ID
	Fee int64
}

// Distribution is a computed, not-yet-persisted split. FeeBase is the value
// the conservation check balances against: the booking's total fee for prime,
// zero for non-prime.
type Distribution struct {
	FeeBase int64
	Lines   []Line

	VenueEarnings     int64
	ConciergeEarnings int64
	PlatformEarnings  int64

	PartnerConcierge *PartnerShare
	PartnerVenue     *PartnerShare
}

// Amounts returns the signed ledger amounts, in line order.
func (d Distribution) Amounts() []int64 {
	amounts := make([]int64, 0, len(d.Lines))
	for _, line := range d.Lines {
		amounts = append(amounts, line.Amount)
	}
	return amounts
}

// EntryView is one persisted ledger row as returned by the read APIs.
type EntryView struct {
	ID          string                 `json:"id"`
	BookingID   string                 `json:"booking_id"`
	Role        earningdomain.RoleType `json:"role_type"`
	RecipientID string                 `json:"recipient_id"`
	Amount      int64                  `json:"amount"`
	CreatedAt   time.Time              `json:"created_at"`
}

// DistributeResponse reports the outcome of one distribution call. A retry
// against an already distributed booking returns the stored outcome with
// AlreadyDistributed set.
type DistributeResponse struct {
	BookingID          string      `json:"booking_id"`
	Regime             string      `json:"regime"`
	AlreadyDistributed bool        `json:"already_distributed"`
	FeeBase            int64       `json:"fee_base"`
	VenueEarnings      int64       `json:"venue_earnings"`
	ConciergeEarnings  int64       `json:"concierge_earnings"`
	PlatformEarnings   int64       `json:"platform_earnings"`
	DistributedAt      time.Time   `json:"distributed_at"`
	Entries            []EntryView `json:"entries"`
}
