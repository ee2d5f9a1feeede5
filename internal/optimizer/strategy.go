package optimizer

import (
	"context"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// Strategy proposes a grouping of requests into trips. Its output is
// untrusted: the only consumer is the priority-repair pass.
type Strategy interface {
	Propose(ctx context.Context, requests []domain.UnifiedRequest, date time.Time) (*domain.TripProposal, error)
}

// Disabled is used when no optimizer endpoint is configured. Every call
// fails so the engine runs the fallback path.
type Disabled struct{}

// Propose always returns ErrUnavailable.
func (Disabled) Propose(ctx context.Context, requests []domain.UnifiedRequest, date time.Time) (*domain.TripProposal, error) {
	return nil, ErrUnavailable
}

// Ensure implementations satisfy Strategy.
var (
	_ Strategy = Disabled{}
	_ Strategy = (*HTTPClient)(nil)
)
