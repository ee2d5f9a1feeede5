package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip. The table has a unique index on
// (route_id, time_slot_id, service_date).
func (r *TripRepository) Create(ctx context.Context, trip *domain.VehicleTrip) error {
	query := `
		INSERT INTO vehicle_trips (id, reference_code, route_id, time_slot_id, service_date,
		                           vehicle_capacity, status, provenance, confidence, rationale, created_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.ReferenceCode,
		trip.RouteID,
		trip.TimeSlotID,
		sqlDate(trip.ServiceDate),
		trip.VehicleCapacity,
		trip.Status,
		trip.Provenance,
		trip.Confidence,
		trip.Rationale,
		trip.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateTrip
		}
		return err
	}
	return nil
}

// CountByDate returns the number of trips for date.
func (r *TripRepository) CountByDate(ctx context.Context, date time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM vehicle_trips WHERE service_date = $1::date`

	var count int
	if err := r.q.QueryRowContext(ctx, query, sqlDate(date)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trips: %w", err)
	}
	return count, nil
}

// ListByDate returns trips for date ordered by reference code.
func (r *TripRepository) ListByDate(ctx context.Context, date time.Time) ([]*domain.VehicleTrip, error) {
	query := `
		SELECT id, reference_code, route_id, time_slot_id, service_date, vehicle_capacity,
		       status, provenance, confidence, rationale, created_at
		FROM vehicle_trips
		WHERE service_date = $1::date
		ORDER BY reference_code
	`

	rows, err := r.q.QueryContext(ctx, query, sqlDate(date))
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var trips []*domain.VehicleTrip
	for rows.Next() {
		var trip domain.VehicleTrip
		if err := rows.Scan(
			&trip.ID,
			&trip.ReferenceCode,
			&trip.RouteID,
			&trip.TimeSlotID,
			&trip.ServiceDate,
			&trip.VehicleCapacity,
			&trip.Status,
			&trip.Provenance,
			&trip.Confidence,
			&trip.Rationale,
			&trip.CreatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}

	return trips, rows.Err()
}

// AssignmentRepository is a PostgreSQL implementation of repository.AssignmentRepository.
type AssignmentRepository struct {
	q Querier
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db}
}

// NewAssignmentRepositoryWithTx creates an assignment repository using a transaction.
func NewAssignmentRepositoryWithTx(tx *sql.Tx) *AssignmentRepository {
	return &AssignmentRepository{q: tx}
}

// CreateBatch inserts assignments one statement each; callers wrap it in a
// transaction.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []*domain.TripAssignment) error {
	query := `
		INSERT INTO trip_assignments (id, trip_id, request_id, source_kind, pickup_sequence)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, a := range assignments {
		if _, err := r.q.ExecContext(ctx, query, a.ID, a.TripID, a.RequestID, a.SourceKind, a.PickupSequence); err != nil {
			return fmt.Errorf("insert assignment %s: %w", a.RequestID, err)
		}
	}
	return nil
}

// ListByTripIDs returns assignments keyed by trip id, in pickup order.
func (r *AssignmentRepository) ListByTripIDs(ctx context.Context, tripIDs []string) (map[string][]*domain.TripAssignment, error) {
	result := make(map[string][]*domain.TripAssignment, len(tripIDs))
	if len(tripIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, trip_id, request_id, source_kind, pickup_sequence
		FROM trip_assignments
		WHERE trip_id = ANY($1)
		ORDER BY trip_id, pickup_sequence
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(tripIDs))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.TripAssignment
		if err := rows.Scan(&a.ID, &a.TripID, &a.RequestID, &a.SourceKind, &a.PickupSequence); err != nil {
			return nil, err
		}
		result[a.TripID] = append(result[a.TripID], &a)
	}

	return result, rows.Err()
}

// ServiceDayRepository is a PostgreSQL implementation of repository.ServiceDayRepository.
type ServiceDayRepository struct {
	q Querier
}

// NewServiceDayRepository creates a new service-day repository.
func NewServiceDayRepository(db *sql.DB) *ServiceDayRepository {
	return &ServiceDayRepository{q: db}
}

// NewServiceDayRepositoryWithTx creates a service-day repository using a transaction.
func NewServiceDayRepositoryWithTx(tx *sql.Tx) *ServiceDayRepository {
	return &ServiceDayRepository{q: tx}
}

// Upsert writes records keyed by (request_id, service_date). An outcome is
// final once trip_generated or trip_not_generated; only a scheduled
// placeholder is replaced.
func (r *ServiceDayRepository) Upsert(ctx context.Context, records []*domain.ServiceDayRecord) error {
	query := `
		INSERT INTO service_day_records (request_id, service_date, outcome, vehicle_trip_id)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT (request_id, service_date)
		DO UPDATE SET outcome = EXCLUDED.outcome, vehicle_trip_id = EXCLUDED.vehicle_trip_id
		WHERE service_day_records.outcome = 'scheduled'
	`

	for _, rec := range records {
		var tripID sql.NullString
		if rec.VehicleTripID != "" {
			tripID = sql.NullString{String: rec.VehicleTripID, Valid: true}
		}
		if _, err := r.q.ExecContext(ctx, query, rec.RequestID, sqlDate(rec.ServiceDate), rec.Outcome, tripID); err != nil {
			return fmt.Errorf("upsert service day %s: %w", rec.RequestID, err)
		}
	}
	return nil
}

// Ensure implementations satisfy their interfaces.
var (
	_ repository.TripRepository       = (*TripRepository)(nil)
	_ repository.AssignmentRepository = (*AssignmentRepository)(nil)
	_ repository.ServiceDayRepository = (*ServiceDayRepository)(nil)
)
