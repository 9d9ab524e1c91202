package domain

import "context"

// Service runs earnings distribution for finalized bookings. Distribution is
// idempotent per booking: a retry returns the stored outcome instead of
// writing anything.
type Service interface {
	// Distribute splits the booking's fee according to its regime and writes
	// the ledger rows and booking summary in one transaction.
	Distribute(ctx context.Context, bookingID string) (DistributeResponse, error)

	// DistributePrime is Distribute restricted to prime bookings; a non-prime
	// booking returns ErrRegimeMismatch.
	DistributePrime(ctx context.Context, bookingID string) (DistributeResponse, error)

	// DistributeNonPrime is Distribute restricted to non-prime bookings; a
	// prime booking returns ErrRegimeMismatch.
	DistributeNonPrime(ctx context.Context, bookingID string) (DistributeResponse, error)
}
