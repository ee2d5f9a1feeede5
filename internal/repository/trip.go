package repository

import (
	"context"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// TripRepository defines the persistence operations for vehicle trips.
type TripRepository interface {
	// Create persists a new trip. It returns ErrDuplicateTrip when the
	// (route, slot, date) key is taken.
	Create(ctx context.Context, trip *domain.VehicleTrip) error

	// CountByDate returns the number of trips for a service date.
	CountByDate(ctx context.Context, date time.Time) (int, error)

	// ListByDate returns trips for a service date ordered by reference code.
	ListByDate(ctx context.Context, date time.Time) ([]*domain.VehicleTrip, error)
}

// AssignmentRepository stores trip membership.
type AssignmentRepository interface {
	// CreateBatch persists all assignments of one trip.
	CreateBatch(ctx context.Context, assignments []*domain.TripAssignment) error

	// ListByTripIDs returns assignments grouped by trip id, in pickup order.
	ListByTripIDs(ctx context.Context, tripIDs []string) (map[string][]*domain.TripAssignment, error)
}

// ServiceDayRepository records per-date outcomes of recurring requests.
type ServiceDayRepository interface {
	// Upsert writes records. An existing (request, date) record is overwritten.
	Upsert(ctx context.Context, records []*domain.ServiceDayRecord) error
}

// TripWriters are the repositories bound to one transaction.
type TripWriters struct {
	Trips       TripRepository
	Assignments AssignmentRepository
	ServiceDays ServiceDayRepository
}

// Transactor runs fn in a single transaction. If fn returns an error,
// nothing it wrote is kept.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, w TripWriters) error) error
}
