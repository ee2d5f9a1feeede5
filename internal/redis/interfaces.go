package redis

import (
	"context"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// RunLeaseStoreInterface guards the engine across processes.
type RunLeaseStoreInterface interface {
	// AcquireRunLease returns a token when the lease was taken, or "" when
	// another holder owns it.
	AcquireRunLease(ctx context.Context, ttl time.Duration) (string, error)
	ReleaseRunLease(ctx context.Context, token string) error
}

// SummaryStoreInterface caches the latest run summary per service date.
type SummaryStoreInterface interface {
	GetSummary(ctx context.Context, date string) (*domain.RunSummary, error)
	SetSummary(ctx context.Context, summary *domain.RunSummary) error
}

// Ensure concrete types implement interfaces.
var (
	_ RunLeaseStoreInterface = (*LeaseStore)(nil)
	_ SummaryStoreInterface  = (*SummaryStore)(nil)
)
