package repository

import (
	"context"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// RequestRepository reads the two demand sources.
type RequestRepository interface {
	// ListActiveRecurring returns active recurring requests that include weekday.
	// Order is stable (by creation, then id).
	ListActiveRecurring(ctx context.Context, weekday time.Weekday) ([]*domain.RecurringRequest, error)

	// ListOneOffForDate returns one-off requests for the service date,
	// in booking order.
	ListOneOffForDate(ctx context.Context, date time.Time) ([]*domain.OneOffRequest, error)
}

// ReferenceRepository reads routes, boarding points and riders.
type ReferenceRepository interface {
	// ListBoardingPoints returns every boarding point.
	ListBoardingPoints(ctx context.Context) ([]*domain.BoardingPoint, error)

	// GetRidersByIDs returns the riders that exist among ids.
	GetRidersByIDs(ctx context.Context, ids []string) ([]*domain.Rider, error)
}

// CalendarRepository answers blackout questions.
type CalendarRepository interface {
	IsBlackoutDate(ctx context.Context, date time.Time) (bool, error)
}
