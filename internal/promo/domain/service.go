package domain

import "time"

// Service resolves the promotional multiplier for a booking instant, in
// basis points (10000 = 1.0). Promotions only apply to prime concierge
// earnings; non-prime lookups always return 1.0.
type Service interface {
	MultiplierFor(at time.Time, isPrime bool) int64
}
