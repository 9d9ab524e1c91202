package domain

import (
	"context"
	"time"

	"github.com/tablenest/tablenest/pkg/db/pagination"
)

type ListRequest struct {
	BookingID   string
	RecipientID string
	Role        RoleType
	Page        pagination.Pagination
}

type ListResponse struct {
	Earnings []*Earning           `json:"earnings"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

// BookingEarningsResponse is the per-booking ledger view: the stored summary
// plus every ledger row, with the signed row total for reconciliation.
type BookingEarningsResponse struct {
	BookingID         string     `json:"booking_id"`
	Regime            string     `json:"regime"`
	VenueEarnings     int64      `json:"venue_earnings"`
	ConciergeEarnings int64      `json:"concierge_earnings"`
	PlatformEarnings  int64      `json:"platform_earnings"`
	DistributedAt     *time.Time `json:"distributed_at,omitempty"`
	Entries           []*Earning `json:"entries"`
	EntriesTotal      int64      `json:"entries_total"`
}

type Service interface {
	GetBookingEarnings(ctx context.Context, bookingID string) (BookingEarningsResponse, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}
