package domain

import (
	"fmt"

	"github.com/tablenest/tablenest/internal/config"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
)

// All splits use integer multiply-then-divide on minor units. Division
// truncates, and every remainder accrues to the platform residual, so the
// conservation law holds exactly without any rounding ledger.

func pctShare(base, percentage int64) int64 {
	return base * percentage / 100
}

func applyBps(amount, multiplierBps int64) int64 {
	return amount * multiplierBps / config.BpsOne
}

// partnerShare caps the partner's cut of the platform slice at the configured
// global maximum.
func partnerShare(platformBase, percentage, maxPercentage int64) int64 {
	share := pctShare(platformBase, percentage)
	capped := pctShare(platformBase, maxPercentage)
	if share > capped {
		return capped
	}
	return share
}

// CalculatePrime splits a prime booking's total fee. The venue and concierge
// take their percentage shares off the top (the concierge share scaled by the
// promo multiplier), partner commissions and referral rewards are carved out
// of the remaining platform slice, and the platform keeps the residual. The
// sum of all lines plus the platform residual equals TotalFee exactly.
func CalculatePrime(in PrimeInput) (Distribution, error) {
	if in.TotalFee <= 0 {
		return Distribution{}, fmt.Errorf("%w: total fee %d", ErrInvalidFee, in.TotalFee)
	}
	if in.VenuePercentage < 0 || in.VenuePercentage > 100 {
		return Distribution{}, fmt.Errorf("%w: venue percentage %d", ErrInvalidRate, in.VenuePercentage)
	}
	if in.ConciergeRate < 0 || in.ConciergeRate > 100 {
		return Distribution{}, fmt.Errorf("%w: concierge rate %d", ErrInvalidRate, in.ConciergeRate)
	}
	if in.PromoMultiplierBps < config.BpsOne {
		return Distribution{}, fmt.Errorf("%w: %d bps", ErrInvalidMultiplier, in.PromoMultiplierBps)
	}

	venue := pctShare(in.TotalFee, in.VenuePercentage)
	concierge := applyBps(pctShare(in.TotalFee, in.ConciergeRate), in.PromoMultiplierBps)
	platformBase := in.TotalFee - venue - concierge

	dist := Distribution{
		FeeBase:           in.TotalFee,
		VenueEarnings:     venue,
		ConciergeEarnings: concierge,
		Lines: []Line{
			{Role: earningdomain.RoleVenue, RecipientID: in.VenueID, Amount: venue},
			{Role: earningdomain.RoleConcierge, RecipientID: in.ConciergeID, Amount: concierge},
		},
	}

	dist.PlatformEarnings = platformBase - carveResidual(&dist, platformBase, in.ResidualShares)
	return dist, nil
}

// CalculateNonPrime splits a non-prime incentive flow. The venue funds the
// whole flow: it is charged the bounty base plus a platform markup, the
// concierge is paid its bounty, and the platform keeps the rest. Partner and
// referral shares come out of a configured percentage of the base, mirroring
// the prime platform slice. The whole flow is zero-sum, so the lines plus the
// platform residual sum to zero.
func CalculateNonPrime(in NonPrimeInput) (Distribution, error) {
	if in.FeePerHead <= 0 {
		return Distribution{}, fmt.Errorf("%w: fee per head %d", ErrInvalidFee, in.FeePerHead)
	}
	if in.GuestCount < 1 {
		return Distribution{}, fmt.Errorf("%w: %d", ErrInvalidGuestCount, in.GuestCount)
	}
	if in.ConciergeRate < 0 || in.ConciergeRate > 100 {
		return Distribution{}, fmt.Errorf("%w: concierge rate %d", ErrInvalidRate, in.ConciergeRate)
	}

	base := in.FeePerHead * int64(in.GuestCount)
	bounty := pctShare(base, in.ConciergeRate)
	markup := pctShare(base, in.MarkupPercentage)
	venuePaid := -(base + markup)
	platformGross := base + markup - bounty

	// Partner and referral rewards are derived from a fixed slice of the
	// bounty base, not from the gross, so they do not swing with the
	// concierge's rate.
	platformBase := pctShare(base, in.PlatformPercentage)

	dist := Distribution{
		FeeBase:           0,
		VenueEarnings:     venuePaid,
		ConciergeEarnings: bounty,
		Lines: []Line{
			{Role: earningdomain.RoleVenuePaid, RecipientID: in.VenueID, Amount: venuePaid},
			{Role: earningdomain.RoleConciergeBounty, RecipientID: in.ConciergeID, Amount: bounty},
		},
	}

	dist.PlatformEarnings = platformGross - carveResidual(&dist, platformBase, in.ResidualShares)
	return dist, nil
}

// carveResidual appends partner and referral lines and returns the total
// carved amount. Zero-amount shares never produce ledger rows. Both referral
// levels are computed from the same platform base, so the level-2 reward does
// not depend on the level-1 reward.
func carveResidual(dist *Distribution, platformBase int64, shares ResidualShares) int64 {
	var carved int64

	if shares.ConciergePartner != nil {
		amount := partnerShare(platformBase, shares.ConciergePartner.Percentage, shares.MaxPartnerPercentage)
		if amount != 0 {
			dist.Lines = append(dist.Lines, Line{
				Role:        earningdomain.RolePartnerConcierge,
				RecipientID: shares.ConciergePartner.ID,
				Amount:      amount,
			})
			dist.PartnerConcierge = &PartnerShare{ID: shares.ConciergePartner.ID, Fee: amount}
			carved += amount
		}
	} else {
		if shares.ReferralLevel1 != nil {
			amount := pctShare(platformBase, shares.ReferralLevel1Percentage)
			if amount != 0 {
				dist.Lines = append(dist.Lines, Line{
					Role:        earningdomain.RoleConciergeReferral1,
					RecipientID: shares.ReferralLevel1.ID,
					Amount:      amount,
				})
				carved += amount
			}
		}
		if shares.ReferralLevel2 != nil {
			amount := pctShare(platformBase, shares.ReferralLevel2Percentage)
			if amount != 0 {
				dist.Lines = append(dist.Lines, Line{
					Role:        earningdomain.RoleConciergeReferral2,
					RecipientID: shares.ReferralLevel2.ID,
					Amount:      amount,
				})
				carved += amount
			}
		}
	}

	if shares.VenuePartner != nil {
		amount := partnerShare(platformBase, shares.VenuePartner.Percentage, shares.MaxPartnerPercentage)
		if amount != 0 {
			dist.Lines = append(dist.Lines, Line{
				Role:        earningdomain.RolePartnerVenue,
				RecipientID: shares.VenuePartner.ID,
				Amount:      amount,
			})
			dist.PartnerVenue = &PartnerShare{ID: shares.VenuePartner.ID, Fee: amount}
			carved += amount
		}
	}

	return carved
}
