package service

import (
	"context"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/redis"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
)

// TripWithAssignments is a persisted trip with its members in pickup order.
type TripWithAssignments struct {
	Trip        *domain.VehicleTrip
	Assignments []*domain.TripAssignment
}

// TripService answers read queries about generated trips and runs.
type TripService struct {
	tripRepo       repository.TripRepository
	assignmentRepo repository.AssignmentRepository
	summaries      redis.SummaryStoreInterface
}

// NewTripService creates a new TripService. summaries may be nil.
func NewTripService(
	tripRepo repository.TripRepository,
	assignmentRepo repository.AssignmentRepository,
	summaries redis.SummaryStoreInterface,
) *TripService {
	return &TripService{
		tripRepo:       tripRepo,
		assignmentRepo: assignmentRepo,
		summaries:      summaries,
	}
}

// ListByDate returns the trips generated for date.
func (s *TripService) ListByDate(ctx context.Context, date time.Time) ([]TripWithAssignments, error) {
	trips, err := s.tripRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(trips))
	for i, trip := range trips {
		ids[i] = trip.ID
	}

	byTrip, err := s.assignmentRepo.ListByTripIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]TripWithAssignments, 0, len(trips))
	for _, trip := range trips {
		result = append(result, TripWithAssignments{Trip: trip, Assignments: byTrip[trip.ID]})
	}
	return result, nil
}

// GetRunSummary returns the cached summary for date (YYYY-MM-DD).
func (s *TripService) GetRunSummary(ctx context.Context, date string) (*domain.RunSummary, error) {
	if s.summaries == nil {
		return nil, repository.ErrNotFound
	}
	summary, err := s.summaries.GetSummary(ctx, date)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, repository.ErrNotFound
	}
	return summary, nil
}
