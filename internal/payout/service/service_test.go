package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bookingdomain "github.com/tablenest/tablenest/internal/booking/domain"
	bookingrepo "github.com/tablenest/tablenest/internal/booking/repository"
	"github.com/tablenest/tablenest/internal/clock"
	conciergedomain "github.com/tablenest/tablenest/internal/concierge/domain"
	conciergerepo "github.com/tablenest/tablenest/internal/concierge/repository"
	"github.com/tablenest/tablenest/internal/config"
	earningdomain "github.com/tablenest/tablenest/internal/earning/domain"
	earningrepo "github.com/tablenest/tablenest/internal/earning/repository"
	partnerdomain "github.com/tablenest/tablenest/internal/partner/domain"
	partnerrepo "github.com/tablenest/tablenest/internal/partner/repository"
	"github.com/tablenest/tablenest/internal/payout/domain"
	promoservice "github.com/tablenest/tablenest/internal/promo/service"
	referralservice "github.com/tablenest/tablenest/internal/referral/service"
	venuedomain "github.com/tablenest/tablenest/internal/venue/domain"
	venuerepo "github.com/tablenest/tablenest/internal/venue/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service

	bookings bookingdomain.Repository
	earnings earningdomain.Repository
}

func newFixture(t *testing.T, payoutCfg config.PayoutConfig) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&partnerdomain.Partner{},
		&venuedomain.Venue{},
		&conciergedomain.Concierge{},
		&bookingdomain.Booking{},
		&earningdomain.Earning{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	holder, err := config.NewStaticPayoutConfigHolder(payoutCfg)
	require.NoError(t, err)

	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))

	bookings := bookingrepo.Provide()
	venues := venuerepo.Provide()
	concierges := conciergerepo.Provide()
	partners := partnerrepo.Provide()
	earnings := earningrepo.Provide()

	svc := New(Params{
		DB:            db,
		Log:           log,
		Node:          node,
		Clock:         fakeClock,
		Payout:        holder,
		BookingRepo:   bookings,
		VenueRepo:     venues,
		ConciergeRepo: concierges,
		EarningRepo:   earnings,
		Referrals: referralservice.New(referralservice.Params{
			DB:            db,
			Log:           log,
			ConciergeRepo: concierges,
			PartnerRepo:   partners,
		}),
		Promos: promoservice.New(promoservice.Params{Log: log, Payout: holder}),
	})

	return &fixture{
		t:        t,
		db:       db,
		node:     node,
		clock:    fakeClock,
		svc:      svc,
		bookings: bookings,
		earnings: earnings,
	}
}

func (f *fixture) createPartner(percentage int64) *partnerdomain.Partner {
	f.t.Helper()
	p := &partnerdomain.Partner{ID: f.node.Generate(), Name: "partner", Percentage: percentage}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f *fixture) createVenue(venuePct, feePerHead int64, partnerID *snowflake.ID) *venuedomain.Venue {
	f.t.Helper()
	v := &venuedomain.Venue{
		ID:                    f.node.Generate(),
		Name:                  "venue",
		PayoutVenuePercentage: venuePct,
		NonPrimeFeePerHead:    feePerHead,
		PartnerID:             partnerID,
	}
	require.NoError(f.t, f.db.Create(v).Error)
	return v
}

func (f *fixture) createConcierge(mutate func(*conciergedomain.Concierge)) *conciergedomain.Concierge {
	f.t.Helper()
	c := &conciergedomain.Concierge{
		ID:               f.node.Generate(),
		Name:             "concierge",
		PayoutPercentage: 10,
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f *fixture) createBooking(venue *venuedomain.Venue, concierge *conciergedomain.Concierge, mutate func(*bookingdomain.Booking)) *bookingdomain.Booking {
	f.t.Helper()
	b := &bookingdomain.Booking{
		ID:          f.node.Generate(),
		VenueID:     venue.ID,
		ConciergeID: concierge.ID,
		Status:      bookingdomain.BookingStatusFinalized,
		IsPrime:     true,
		TotalFee:    10_000,
		GuestCount:  2,
		BookedAt:    f.clock.Now(),
	}
	if mutate != nil {
		mutate(b)
	}
	require.NoError(f.t, f.db.Create(b).Error)
	return b
}

func (f *fixture) ledgerRows(bookingID snowflake.ID) []*earningdomain.Earning {
	f.t.Helper()
	rows, err := f.earnings.ListByBooking(context.Background(), f.db, bookingID)
	require.NoError(f.t, err)
	return rows
}

func TestDistribute_Prime(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(40, 1_000, nil)
	concierge := f.createConcierge(nil)
	booking := f.createBooking(venue, concierge, nil)

	resp, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)

	assert.Equal(t, RegimePrime, resp.Regime)
	assert.False(t, resp.AlreadyDistributed)
	assert.Equal(t, int64(10_000), resp.FeeBase)
	assert.Equal(t, int64(4_000), resp.VenueEarnings)
	assert.Equal(t, int64(1_000), resp.ConciergeEarnings)
	assert.Equal(t, int64(5_000), resp.PlatformEarnings)
	assert.Len(t, resp.Entries, 2)
	assert.WithinDuration(t, f.clock.Now(), resp.DistributedAt, time.Second)

	stored, err := f.bookings.FindByID(context.Background(), f.db, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DistributedAt)
	assert.Equal(t, int64(5_000), stored.PlatformEarnings)
}

func TestDistribute_Retry(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(40, 1_000, nil)
	concierge := f.createConcierge(nil)
	booking := f.createBooking(venue, concierge, nil)

	first, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)

	assert.True(t, second.AlreadyDistributed)
	assert.Equal(t, first.VenueEarnings, second.VenueEarnings)
	assert.Equal(t, first.ConciergeEarnings, second.ConciergeEarnings)
	assert.Equal(t, first.PlatformEarnings, second.PlatformEarnings)
	assert.Equal(t, first.DistributedAt, second.DistributedAt, "retry keeps the original timestamp")
	assert.Len(t, f.ledgerRows(booking.ID), 2, "retry writes nothing")
}

// A crash between the ledger write and the summary write leaves rows without
// a distributed_at marker. The next run heals the summary without touching
// the rows.
func TestDistribute_HealsSummaryAfterPartialCommit(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(40, 1_000, nil)
	concierge := f.createConcierge(nil)
	booking := f.createBooking(venue, concierge, nil)

	_, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&bookingdomain.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]any{"distributed_at": nil, "platform_earnings": 0}).Error)

	before := f.ledgerRows(booking.ID)
	resp, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)

	assert.True(t, resp.AlreadyDistributed)
	assert.Equal(t, int64(5_000), resp.PlatformEarnings)

	after := f.ledgerRows(booking.ID)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID, "ledger rows untouched")
	}
}

func TestDistribute_PrimeWithReferralChain(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(40, 1_000, nil)

	level2 := f.createConcierge(nil)
	level1 := f.createConcierge(func(c *conciergedomain.Concierge) { c.ReferrerID = &level2.ID })
	booker := f.createConcierge(func(c *conciergedomain.Concierge) { c.ReferrerID = &level1.ID })
	booking := f.createBooking(venue, booker, nil)

	resp, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)
	require.Len(t, resp.Entries, 4)

	amounts := map[earningdomain.RoleType]int64{}
	recipients := map[earningdomain.RoleType]string{}
	var total int64
	for _, entry := range resp.Entries {
		amounts[entry.Role] = entry.Amount
		recipients[entry.Role] = entry.RecipientID
		total += entry.Amount
	}

	// Platform slice is 5000; both levels are carved from it directly.
	assert.Equal(t, int64(500), amounts[earningdomain.RoleConciergeReferral1])
	assert.Equal(t, int64(250), amounts[earningdomain.RoleConciergeReferral2])
	assert.Equal(t, level1.ID.String(), recipients[earningdomain.RoleConciergeReferral1])
	assert.Equal(t, level2.ID.String(), recipients[earningdomain.RoleConciergeReferral2])
	assert.Equal(t, booking.TotalFee, total+resp.PlatformEarnings)
}

func TestDistribute_PrimeWithPartners(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	conciergePartner := f.createPartner(35)
	venuePartner := f.createPartner(5)
	venue := f.createVenue(40, 1_000, &venuePartner.ID)
	referrer := f.createConcierge(nil)
	booker := f.createConcierge(func(c *conciergedomain.Concierge) {
		c.PartnerID = &conciergePartner.ID
		c.ReferrerID = &referrer.ID
	})
	booking := f.createBooking(venue, booker, nil)

	resp, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)

	amounts := map[earningdomain.RoleType]int64{}
	for _, entry := range resp.Entries {
		amounts[entry.Role] = entry.Amount
	}

	// Concierge partner asks 35% of the 5000 slice but is capped at 20%;
	// the partner also displaces the referral chain entirely.
	assert.Equal(t, int64(1_000), amounts[earningdomain.RolePartnerConcierge])
	assert.Equal(t, int64(250), amounts[earningdomain.RolePartnerVenue])
	assert.NotContains(t, amounts, earningdomain.RoleConciergeReferral1)

	stored, err := f.bookings.FindByID(context.Background(), f.db, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PartnerConciergeFee)
	require.NotNil(t, stored.PartnerVenueFee)
	assert.Equal(t, int64(1_000), *stored.PartnerConciergeFee)
	assert.Equal(t, int64(250), *stored.PartnerVenueFee)
}

func TestDistribute_QRConciergeOverride(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(30, 1_000, nil)
	revenue := int64(60)
	concierge := f.createConcierge(func(c *conciergedomain.Concierge) {
		c.IsQRConcierge = true
		c.RevenuePercentage = &revenue
	})
	booking := f.createBooking(venue, concierge, func(b *bookingdomain.Booking) { b.TotalFee = 20_000 })

	resp, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(12_000), resp.ConciergeEarnings)
}

func TestDistribute_NonPrime(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(40, 1_000, nil)
	concierge := f.createConcierge(nil)
	booking := f.createBooking(venue, concierge, func(b *bookingdomain.Booking) {
		b.IsPrime = false
		b.TotalFee = 0
		b.GuestCount = 2
	})

	resp, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)

	assert.Equal(t, RegimeNonPrime, resp.Regime)
	assert.Equal(t, int64(0), resp.FeeBase)
	require.Len(t, resp.Entries, 2)

	amounts := map[earningdomain.RoleType]int64{}
	for _, entry := range resp.Entries {
		amounts[entry.Role] = entry.Amount
	}
	assert.Equal(t, int64(-2_200), amounts[earningdomain.RoleVenuePaid])
	assert.Equal(t, int64(1_600), amounts[earningdomain.RoleConciergeBounty])
	assert.Equal(t, int64(600), resp.PlatformEarnings)

	sum, err := f.earnings.SumByBooking(context.Background(), f.db, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum+resp.PlatformEarnings, "non-prime flow is zero-sum")
}

func TestDistribute_PromoWindow(t *testing.T) {
	cfg := config.DefaultPayoutConfig()
	cfg.PromoWindows = []config.PromoWindow{
		{StartDate: "2026-08-01", EndDate: "2026-08-31", MultiplierBps: 15_000},
	}
	f := newFixture(t, cfg)
	venue := f.createVenue(40, 1_000, nil)
	concierge := f.createConcierge(nil)
	booking := f.createBooking(venue, concierge, nil)

	resp, err := f.svc.Distribute(context.Background(), booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1_500), resp.ConciergeEarnings)
	assert.Equal(t, int64(4_500), resp.PlatformEarnings)
}

func TestDistribute_Guards(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(40, 1_000, nil)
	concierge := f.createConcierge(nil)

	t.Run("unknown booking", func(t *testing.T) {
		_, err := f.svc.Distribute(context.Background(), f.node.Generate().String())
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("unparseable booking id", func(t *testing.T) {
		_, err := f.svc.Distribute(context.Background(), "not-a-snowflake")
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("pending booking", func(t *testing.T) {
		booking := f.createBooking(venue, concierge, func(b *bookingdomain.Booking) {
			b.Status = bookingdomain.BookingStatusPending
		})
		_, err := f.svc.Distribute(context.Background(), booking.ID.String())
		assert.ErrorIs(t, err, domain.ErrBookingNotFinalized)
		assert.Empty(t, f.ledgerRows(booking.ID))
	})

	t.Run("regime mismatch", func(t *testing.T) {
		booking := f.createBooking(venue, concierge, func(b *bookingdomain.Booking) { b.IsPrime = false })
		_, err := f.svc.DistributePrime(context.Background(), booking.ID.String())
		assert.ErrorIs(t, err, domain.ErrRegimeMismatch)

		prime := f.createBooking(venue, concierge, nil)
		_, err = f.svc.DistributeNonPrime(context.Background(), prime.ID.String())
		assert.ErrorIs(t, err, domain.ErrRegimeMismatch)
	})
}

func TestDistribute_PartialLedgerAborts(t *testing.T) {
	f := newFixture(t, config.DefaultPayoutConfig())
	venue := f.createVenue(40, 1_000, nil)
	concierge := f.createConcierge(nil)
	booking := f.createBooking(venue, concierge, nil)

	// Seed one of the two expected rows out of band so the run sees a
	// ledger it neither fully owns nor fully recognizes.
	_, err := f.earnings.Insert(context.Background(), f.db, &earningdomain.Earning{
		ID:          f.node.Generate(),
		BookingID:   booking.ID,
		Role:        earningdomain.RoleVenue,
		RecipientID: venue.ID,
		Amount:      123,
		CreatedAt:   f.clock.Now(),
	})
	require.NoError(t, err)

	_, err = f.svc.Distribute(context.Background(), booking.ID.String())
	assert.ErrorIs(t, err, earningdomain.ErrPartialLedger)

	rows := f.ledgerRows(booking.ID)
	assert.Len(t, rows, 1, "transaction rolled back")

	stored, err := f.bookings.FindByID(context.Background(), f.db, booking.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DistributedAt)
}
