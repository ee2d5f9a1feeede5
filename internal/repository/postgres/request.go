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

// RequestRepository is a PostgreSQL implementation of repository.RequestRepository.
type RequestRepository struct {
	q Querier
}

// NewRequestRepository creates a new PostgreSQL request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{q: db}
}

// ListActiveRecurring returns active recurring requests whose weekday set
// contains weekday (0 = Sunday).
func (r *RequestRepository) ListActiveRecurring(ctx context.Context, weekday time.Weekday) ([]*domain.RecurringRequest, error) {
	query := `
		SELECT id, rider_id, route_id, time_slot_id, boarding_point_id, drop_off_point_id, weekdays, is_active
		FROM recurring_requests
		WHERE is_active AND $1 = ANY(weekdays)
		ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("list recurring requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.RecurringRequest
	for rows.Next() {
		var req domain.RecurringRequest
		var weekdays []int64

		if err := rows.Scan(
			&req.ID,
			&req.RiderID,
			&req.RouteID,
			&req.TimeSlotID,
			&req.BoardingPointID,
			&req.DropOffPointID,
			pq.Array(&weekdays),
			&req.Active,
		); err != nil {
			return nil, err
		}

		req.Weekdays = make([]time.Weekday, len(weekdays))
		for i, d := range weekdays {
			req.Weekdays[i] = time.Weekday(d)
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// ListOneOffForDate returns non-cancelled one-off requests for date.
func (r *RequestRepository) ListOneOffForDate(ctx context.Context, date time.Time) ([]*domain.OneOffRequest, error) {
	query := `
		SELECT id, rider_name, rider_phone, rider_id, route_id, time_slot_id,
		       boarding_point_id, drop_off_point_id, travel_date
		FROM one_off_requests
		WHERE travel_date = $1::date AND status <> 'cancelled'
		ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, sqlDate(date))
	if err != nil {
		return nil, fmt.Errorf("list one-off requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.OneOffRequest
	for rows.Next() {
		var req domain.OneOffRequest
		var riderID sql.NullString

		if err := rows.Scan(
			&req.ID,
			&req.RiderName,
			&req.RiderPhone,
			&riderID,
			&req.RouteID,
			&req.TimeSlotID,
			&req.BoardingPointID,
			&req.DropOffPointID,
			&req.TravelDate,
		); err != nil {
			return nil, err
		}

		req.RiderID = riderID.String
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// Ensure RequestRepository implements repository.RequestRepository.
var _ repository.RequestRepository = (*RequestRepository)(nil)
