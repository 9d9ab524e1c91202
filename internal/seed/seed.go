package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	conciergedomain "github.com/tablenest/tablenest/internal/concierge/domain"
	partnerdomain "github.com/tablenest/tablenest/internal/partner/domain"
	venuedomain "github.com/tablenest/tablenest/internal/venue/domain"
	"gorm.io/gorm"
)

const (
	demoPartnerName   = "Harbor Hospitality Group"
	demoVenueName     = "The Copper Room"
	demoConciergeName = "Front Desk Demo"
	demoReferrerName  = "City Host Demo"
)

// EnsureDemoData seeds one partner, one venue, and a two-concierge referral
// chain so a fresh install can run a distribution immediately. Idempotent by
// name lookup.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		partner, err := ensurePartner(tx, node)
		if err != nil {
			return err
		}
		if err := ensureVenue(tx, node, partner.ID); err != nil {
			return err
		}
		referrer, err := ensureConcierge(tx, node, demoReferrerName, nil)
		if err != nil {
			return err
		}
		_, err = ensureConcierge(tx, node, demoConciergeName, &referrer.ID)
		return err
	})
}

func ensurePartner(tx *gorm.DB, node *snowflake.Node) (*partnerdomain.Partner, error) {
	var partner partnerdomain.Partner
	err := tx.Where("name = ?", demoPartnerName).Limit(1).Find(&partner).Error
	if err != nil {
		return nil, err
	}
	if partner.ID != 0 {
		return &partner, nil
	}

	partner = partnerdomain.Partner{
		ID:         node.Generate(),
		Name:       demoPartnerName,
		Percentage: 15,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := tx.Create(&partner).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func ensureVenue(tx *gorm.DB, node *snowflake.Node, partnerID snowflake.ID) error {
	var venue venuedomain.Venue
	err := tx.Where("name = ?", demoVenueName).Limit(1).Find(&venue).Error
	if err != nil {
		return err
	}
	if venue.ID != 0 {
		return nil
	}

	venue = venuedomain.Venue{
		ID:                    node.Generate(),
		Name:                  demoVenueName,
		PayoutVenuePercentage: 40,
		NonPrimeFeePerHead:    1_000,
		PartnerID:             &partnerID,
		CreatedAt:             time.Now().UTC(),
		UpdatedAt:             time.Now().UTC(),
	}
	return tx.Create(&venue).Error
}

func ensureConcierge(tx *gorm.DB, node *snowflake.Node, name string, referrerID *snowflake.ID) (*conciergedomain.Concierge, error) {
	var concierge conciergedomain.Concierge
	err := tx.Where("name = ?", name).Limit(1).Find(&concierge).Error
	if err != nil {
		return nil, err
	}
	if concierge.ID != 0 {
		return &concierge, nil
	}

	concierge = conciergedomain.Concierge{
		ID:               node.Generate(),
		Name:             name,
		PayoutPercentage: 10,
		ReferrerID:       referrerID,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := tx.Create(&concierge).Error; err != nil {
		return nil, err
	}
	return &concierge, nil
}
