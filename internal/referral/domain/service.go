package domain

import (
	"context"

	conciergedomain "github.com/tablenest/tablenest/internal/concierge/domain"
	partnerdomain "github.com/tablenest/tablenest/internal/partner/domain"
	venuedomain "github.com/tablenest/tablenest/internal/venue/domain"
)

// MaxChainDepth caps the rewarded referral chain. The walk never goes deeper
// regardless of upstream data corruption, which also makes cycles harmless.
const MaxChainDepth = 2

// Resolution is the referral outcome for a booking's concierge side. Partner
// and the chain are mutually exclusive: a concierge with a referring partner
// never also yields chain levels.
type Resolution struct {
	Partner *partnerdomain.Partner
	Level1  *conciergedomain.Concierge
	Level2  *conciergedomain.Concierge
}

type Service interface {
	// ResolveConcierge returns the referring partner if one is attached, else
	// walks the referral chain up to MaxChainDepth hops. Missing or dangling
	// referrers are not errors; they terminate the walk.
	ResolveConcierge(ctx context.Context, concierge *conciergedomain.Concierge) (Resolution, error)

	// ResolveVenue returns the venue's referring partner, if any. Venues have
	// no referral chain.
	ResolveVenue(ctx context.Context, venue *venuedomain.Venue) (*partnerdomain.Partner, error)
}
