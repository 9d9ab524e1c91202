package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	conciergedomain "github.com/tablenest/tablenest/internal/concierge/domain"
	conciergerepo "github.com/tablenest/tablenest/internal/concierge/repository"
	partnerdomain "github.com/tablenest/tablenest/internal/partner/domain"
	partnerrepo "github.com/tablenest/tablenest/internal/partner/repository"
	venuedomain "github.com/tablenest/tablenest/internal/venue/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&conciergedomain.Concierge{}, &partnerdomain.Partner{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		ConciergeRepo: conciergerepo.Provide(),
		PartnerRepo:   partnerrepo.Provide(),
	}).(*Service)

	return &fixture{db: db, node: node, svc: svc}
}

func (f *fixture) createConcierge(t *testing.T, referrerID, partnerID *snowflake.ID) *conciergedomain.Concierge {
	t.Helper()
	c := &conciergedomain.Concierge{
		ID:               f.node.Generate(),
		Name:             "concierge",
		PayoutPercentage: 25,
		ReferrerID:       referrerID,
		PartnerID:        partnerID,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

func TestResolveConcierge_TwoLevelChain(t *testing.T) {
	f := newFixture(t)

	grandparent := f.createConcierge(t, nil, nil)
	parent := f.createConcierge(t, idPtr(grandparent.ID), nil)
	child := f.createConcierge(t, idPtr(parent.ID), nil)

	res, err := f.svc.ResolveConcierge(context.Background(), child)
	require.NoError(t, err)
	assert.Nil(t, res.Partner)
	require.NotNil(t, res.Level1)
	require.NotNil(t, res.Level2)
	assert.Equal(t, parent.ID, res.Level1.ID)
	assert.Equal(t, grandparent.ID, res.Level2.ID)
}

func TestResolveConcierge_ChainStopsAtTwoHops(t *testing.T) {
	f := newFixture(t)

	great := f.createConcierge(t, nil, nil)
	grandparent := f.createConcierge(t, idPtr(great.ID), nil)
	parent := f.createConcierge(t, idPtr(grandparent.ID), nil)
	child := f.createConcierge(t, idPtr(parent.ID), nil)

	res, err := f.svc.ResolveConcierge(context.Background(), child)
	require.NoError(t, err)
	require.NotNil(t, res.Level2)
	assert.Equal(t, grandparent.ID, res.Level2.ID, "third hop must not be rewarded")
}

func TestResolveConcierge_PartnerSupersedesChain(t *testing.T) {
	f := newFixture(t)

	partner := &partnerdomain.Partner{
		ID:         f.node.Generate(),
		Name:       "partner",
		Percentage: 15,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(partner).Error)

	parent := f.createConcierge(t, nil, nil)
	child := f.createConcierge(t, idPtr(parent.ID), idPtr(partner.ID))

	res, err := f.svc.ResolveConcierge(context.Background(), child)
	require.NoError(t, err)
	require.NotNil(t, res.Partner)
	assert.Equal(t, partner.ID, res.Partner.ID)
	assert.Nil(t, res.Level1, "partner referral replaces the chain")
	assert.Nil(t, res.Level2)
}

func TestResolveConcierge_ToleratesCycle(t *testing.T) {
	f := newFixture(t)

	a := f.createConcierge(t, nil, nil)
	b := f.createConcierge(t, idPtr(a.ID), nil)
	require.NoError(t, f.db.Model(&conciergedomain.Concierge{}).
		Where("id = ?", a.ID).
		Update("referrer_id", b.ID).Error)
	a.ReferrerID = idPtr(b.ID)

	res, err := f.svc.ResolveConcierge(context.Background(), b)
	require.NoError(t, err)
	require.NotNil(t, res.Level1)
	assert.Equal(t, a.ID, res.Level1.ID)
	assert.Nil(t, res.Level2, "cycle back to the starting concierge is cut")
}

func TestResolveConcierge_NoReferrers(t *testing.T) {
	f := newFixture(t)

	solo := f.createConcierge(t, nil, nil)
	res, err := f.svc.ResolveConcierge(context.Background(), solo)
	require.NoError(t, err)
	assert.Nil(t, res.Partner)
	assert.Nil(t, res.Level1)
	assert.Nil(t, res.Level2)
}

func TestResolveVenue(t *testing.T) {
	f := newFixture(t)

	partner := &partnerdomain.Partner{
		ID:         f.node.Generate(),
		Name:       "venue partner",
		Percentage: 10,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(partner).Error)

	withPartner := &venuedomain.Venue{ID: f.node.Generate(), PartnerID: idPtr(partner.ID)}
	resolved, err := f.svc.ResolveVenue(context.Background(), withPartner)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, partner.ID, resolved.ID)

	without := &venuedomain.Venue{ID: f.node.Generate()}
	resolved, err = f.svc.ResolveVenue(context.Background(), without)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}
