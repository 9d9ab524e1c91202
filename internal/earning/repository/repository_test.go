package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablenest/tablenest/internal/earning/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Earning{}))
	return db
}

func TestInsert_Idempotent(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	bookingID := node.Generate()
	venueID := node.Generate()
	now := time.Now().UTC()

	inserted, err := repo.Insert(context.Background(), db, &domain.Earning{
		ID:          node.Generate(),
		BookingID:   bookingID,
		Role:        domain.RoleVenue,
		RecipientID: venueID,
		Amount:      12000,
		CreatedAt:   now,
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same (booking, role) again must be a silent no-op.
	inserted, err = repo.Insert(context.Background(), db, &domain.Earning{
		ID:          node.Generate(),
		BookingID:   bookingID,
		Role:        domain.RoleVenue,
		RecipientID: venueID,
		Amount:      99999,
		CreatedAt:   now,
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	var count int64
	db.Model(&domain.Earning{}).Where("booking_id = ?", bookingID).Count(&count)
	assert.Equal(t, int64(1), count)

	var kept domain.Earning
	db.First(&kept, "booking_id = ?", bookingID)
	assert.Equal(t, int64(12000), kept.Amount, "first write wins")
}

func TestInsert_RejectsUnknownRole(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	node, _ := snowflake.NewNode(1)

	_, err := repo.Insert(context.Background(), db, &domain.Earning{
		ID:        node.Generate(),
		BookingID: node.Generate(),
		Role:      domain.RoleType("platform"),
		Amount:    1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestSumByBooking(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	node, _ := snowflake.NewNode(1)

	bookingID := node.Generate()
	now := time.Now().UTC()
	for _, e := range []struct {
		role   domain.RoleType
		amount int64
	}{
		{domain.RoleVenuePaid, -2200},
		{domain.RoleConciergeBounty, 1600},
	} {
		_, err := repo.Insert(context.Background(), db, &domain.Earning{
			ID:          node.Generate(),
			BookingID:   bookingID,
			Role:        e.role,
			RecipientID: node.Generate(),
			Amount:      e.amount,
			CreatedAt:   now,
		})
		require.NoError(t, err)
	}

	sum, err := repo.SumByBooking(context.Background(), db, bookingID)
	require.NoError(t, err)
	assert.Equal(t, int64(-600), sum)
}
