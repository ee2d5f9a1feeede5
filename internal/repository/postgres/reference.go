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

// ReferenceRepository reads reference data and the blackout calendar.
type ReferenceRepository struct {
	q Querier
}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository(db *sql.DB) *ReferenceRepository {
	return &ReferenceRepository{q: db}
}

// ListBoardingPoints returns every boarding point.
func (r *ReferenceRepository) ListBoardingPoints(ctx context.Context) ([]*domain.BoardingPoint, error) {
	query := `
		SELECT id, route_id, name, sequence_order, point_type
		FROM boarding_points
		ORDER BY route_id, sequence_order
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list boarding points: %w", err)
	}
	defer rows.Close()

	var points []*domain.BoardingPoint
	for rows.Next() {
		var p domain.BoardingPoint
		if err := rows.Scan(&p.ID, &p.RouteID, &p.Name, &p.SequenceOrder, &p.Type); err != nil {
			return nil, err
		}
		points = append(points, &p)
	}

	return points, rows.Err()
}

// GetRidersByIDs returns the riders among ids.
func (r *ReferenceRepository) GetRidersByIDs(ctx context.Context, ids []string) ([]*domain.Rider, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, phone, email, created_at FROM riders WHERE id = ANY($1)`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get riders: %w", err)
	}
	defer rows.Close()

	var riders []*domain.Rider
	for rows.Next() {
		var rider domain.Rider
		var email sql.NullString
		if err := rows.Scan(&rider.ID, &rider.Name, &rider.Phone, &email, &rider.CreatedAt); err != nil {
			return nil, err
		}
		rider.Email = email.String
		riders = append(riders, &rider)
	}

	return riders, rows.Err()
}

// IsBlackoutDate reports whether date is in the blackout calendar.
func (r *ReferenceRepository) IsBlackoutDate(ctx context.Context, date time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM blackout_dates WHERE blackout_date = $1::date)`

	var blackout bool
	if err := r.q.QueryRowContext(ctx, query, sqlDate(date)).Scan(&blackout); err != nil {
		return false, fmt.Errorf("check blackout date: %w", err)
	}
	return blackout, nil
}

// Ensure ReferenceRepository implements the read interfaces.
var (
	_ repository.ReferenceRepository = (*ReferenceRepository)(nil)
	_ repository.CalendarRepository  = (*ReferenceRepository)(nil)
)
