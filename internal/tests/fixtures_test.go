package tests

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/assignment"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/optimizer"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/service"
)

const (
	routeID = "route-gulshan-motijheel"
	slotAM  = "slot-0730"
	slotPM  = "slot-1800"
)

// monday is a working day; saturday falls on the default weekend.
var (
	monday   = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
)

// engineFixture bundles an AssignmentService with the mocks behind it.
type engineFixture struct {
	requests  *MockRequestRepository
	reference *MockReferenceRepository
	store     *MockTripStore
	notifier  *MockNotifier
	lease     *MockLeaseStore
	summaries *MockSummaryStore
	optimizer optimizer.Strategy

	now      func() time.Time
	location *time.Location
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		requests:  NewMockRequestRepository(),
		reference: NewMockReferenceRepository(),
		store:     NewMockTripStore(),
		notifier:  NewMockNotifier(),
		lease:     &MockLeaseStore{},
		summaries: NewMockSummaryStore(),
		optimizer: optimizer.Disabled{},
		location:  time.UTC,
	}
	// Boarding points bp-1..bp-20, pickup order follows the number.
	for i := 1; i <= 20; i++ {
		f.reference.AddBoardingPoint(&domain.BoardingPoint{
			ID:            fmt.Sprintf("bp-%d", i),
			RouteID:       routeID,
			Name:          fmt.Sprintf("Stop %d", i),
			SequenceOrder: i,
			Type:          domain.BoardingPointPickup,
		})
	}
	return f
}

func (f *engineFixture) service() *service.AssignmentService {
	return service.NewAssignmentService(service.AssignmentDeps{
		Requests:    f.requests,
		Calendar:    f.reference,
		Trips:       f.store,
		ServiceDays: f.store,
		Tx:          f.store,
		Reference:   service.NewReferenceCache(f.reference, time.Minute),
		Optimizer:   f.optimizer,
		Notifier:    f.notifier,
		Lease:       f.lease,
		Summaries:   f.summaries,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, service.AssignmentOptions{
		Policy:   assignment.DefaultPolicy(),
		Location: f.location,
		Now:      f.now,
	})
}

// addRecurring adds a weekday subscription boarding at bp-<stop>.
func (f *engineFixture) addRecurring(id, slot string, stop int) *domain.RecurringRequest {
	r := &domain.RecurringRequest{
		ID:              id,
		RiderID:         "rider-" + id,
		RouteID:         routeID,
		TimeSlotID:      slot,
		BoardingPointID: fmt.Sprintf("bp-%d", stop),
		DropOffPointID:  "drop-1",
		Weekdays:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Active:          true,
	}
	f.requests.AddRecurring(r)
	f.reference.AddRider(&domain.Rider{ID: r.RiderID, Name: "Rider " + id})
	return r
}

// addOneOff adds a single booking for date boarding at bp-<stop>.
func (f *engineFixture) addOneOff(id, slot string, stop int, date time.Time) *domain.OneOffRequest {
	o := &domain.OneOffRequest{
		ID:              id,
		RiderName:       "Guest " + id,
		RiderPhone:      "+8801700000000",
		RouteID:         routeID,
		TimeSlotID:      slot,
		BoardingPointID: fmt.Sprintf("bp-%d", stop),
		DropOffPointID:  "drop-1",
		TravelDate:      date,
	}
	f.requests.AddOneOff(o)
	return o
}

func proposedTrip(slot string, capacity int, memberIDs ...string) domain.ProposedTrip {
	return domain.ProposedTrip{
		RouteID:         routeID,
		TimeSlotID:      slot,
		MemberIDs:       memberIDs,
		VehicleCapacity: capacity,
		PickupSequence:  memberIDs,
		Rationale:       "grouped by corridor",
		Confidence:      0.8,
	}
}

func sub(id string) string { return domain.RecurringIDPrefix + id }
func ind(id string) string { return domain.OneOffIDPrefix + id }

// tripFor returns the stored trip for a slot, or nil.
func (f *engineFixture) tripFor(slot string) *domain.VehicleTrip {
	for _, trip := range f.store.Trips() {
		if trip.TimeSlotID == slot {
			return trip
		}
	}
	return nil
}

func memberSources(assignments []*domain.TripAssignment) []string {
	out := make([]string, len(assignments))
	for i, a := range assignments {
		out[i] = a.RequestID
	}
	return out
}

func unassignedReason(summary *domain.RunSummary, requestID string) string {
	for _, u := range summary.Unassigned {
		if u.RequestID == requestID {
			return u.Reason
		}
	}
	return ""
}

func containsError(summary *domain.RunSummary, substr string) bool {
	for _, e := range summary.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
