package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
)

func seedThreeRiders(f *engineFixture, slot string) {
	for i := 1; i <= 3; i++ {
		f.addRecurring(fmt.Sprintf("%s-r%d", slot, i), slot, i)
	}
}

func TestGuard_WeekendShortCircuits(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)

	summary, err := f.service().RunForDate(context.Background(), saturday)
	if err != nil {
		t.Fatalf("RunForDate() error = %v", err)
	}
	if summary.Outcome != domain.RunSkippedWeekend || !summary.IsWeekend {
		t.Errorf("Outcome=%s IsWeekend=%v", summary.Outcome, summary.IsWeekend)
	}
	if summary.TripsCreated != 0 || len(f.store.Trips()) != 0 {
		t.Error("weekend run created trips")
	}
	if f.reference.BlackoutCallCount != 0 {
		t.Error("blackout calendar consulted on a weekend")
	}
	if summary.DayOfWeek != "Saturday" {
		t.Errorf("DayOfWeek = %s", summary.DayOfWeek)
	}
}

func TestGuard_BlackoutShortCircuits(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)
	f.reference.AddBlackout("2026-10-19")

	summary, err := f.service().RunForDate(context.Background(), monday)
	if err != nil {
		t.Fatalf("RunForDate() error = %v", err)
	}
	if summary.Outcome != domain.RunSkippedBlackout || !summary.IsBlackout {
		t.Errorf("Outcome=%s IsBlackout=%v", summary.Outcome, summary.IsBlackout)
	}
	if f.requests.ListRecurringCallCount != 0 {
		t.Error("demand loaded on a blackout date")
	}
	if f.notifier.ReportCount() != 1 {
		t.Errorf("admin reports = %d, want 1", f.notifier.ReportCount())
	}
}

func TestGuard_ManualRunRefusesDateWithTrips(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)
	svc := f.service()

	first, err := svc.RunForDate(context.Background(), monday)
	if err != nil || first.TripsCreated != 1 {
		t.Fatalf("first run: err=%v summary=%+v", err, first)
	}

	second, err := svc.RunForDate(context.Background(), monday)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if second.Outcome != domain.RunRejectedDuplicate {
		t.Errorf("Outcome = %s, want rejected_duplicate", second.Outcome)
	}
	if !containsError(second, "trips already exist") {
		t.Errorf("Errors = %v", second.Errors)
	}
	if len(f.store.Trips()) != 1 {
		t.Errorf("trips = %d, want 1", len(f.store.Trips()))
	}

	cached, _ := f.summaries.GetSummary(context.Background(), "2026-10-19")
	if cached == nil || cached.Outcome != domain.RunCompleted || cached.TripsCreated != 1 {
		t.Errorf("cached summary = %+v, want the first run", cached)
	}
}

func TestGuard_ScheduledRunKeepsExistingTrips(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.now = func() time.Time { return time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC) }
	seedThreeRiders(f, slotAM)
	seedThreeRiders(f, slotPM)
	f.store.AddTrip(&domain.VehicleTrip{
		ID:            "existing",
		ReferenceCode: "TRP-20261019-001",
		RouteID:       routeID,
		TimeSlotID:    slotAM,
		ServiceDate:   monday,
	})

	summary, err := f.service().RunScheduled(context.Background())
	if err != nil {
		t.Fatalf("RunScheduled() error = %v", err)
	}
	if summary.Trigger != domain.TriggerScheduled || summary.Date != "2026-10-19" {
		t.Errorf("Trigger=%s Date=%s", summary.Trigger, summary.Date)
	}
	if summary.TripsCreated != 1 {
		t.Errorf("TripsCreated = %d, want 1", summary.TripsCreated)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("Errors = %v, want none", summary.Errors)
	}
	if len(summary.Unassigned) != 0 {
		t.Errorf("Unassigned = %v, riders of the existing trip must be left alone", summary.Unassigned)
	}
	if len(f.notifier.NotGenerated) != 0 {
		t.Errorf("rider notifications = %v, want none", f.notifier.NotGenerated)
	}
	pm := f.tripFor(slotPM)
	if pm == nil || pm.ReferenceCode != "TRP-20261019-002" {
		t.Errorf("evening trip = %+v, want reference TRP-20261019-002", pm)
	}
	for i := 1; i <= 3; i++ {
		if rec := f.store.ServiceDay(fmt.Sprintf("%s-r%d", slotAM, i), monday); rec != nil {
			t.Errorf("scheduled run wrote a record for a served rider: %+v", rec)
		}
	}
}

func TestGuard_ScheduledRerunKeepsManualOutcomes(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	f.now = func() time.Time { return time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC) }
	seedThreeRiders(f, slotAM)
	svc := f.service()

	manual, err := svc.RunForDate(context.Background(), monday)
	if err != nil || manual.TripsCreated != 1 {
		t.Fatalf("manual run: err=%v summary=%+v", err, manual)
	}
	trip := f.tripFor(slotAM)
	before := f.store.ServiceDay("slot-0730-r1", monday)
	if before == nil || before.Outcome != domain.ServiceDayTripGenerated {
		t.Fatalf("after manual run: %+v", before)
	}

	scheduled, err := svc.RunScheduled(context.Background())
	if err != nil {
		t.Fatalf("RunScheduled() error = %v", err)
	}
	if scheduled.Outcome != domain.RunCompleted || scheduled.TripsCreated != 0 {
		t.Errorf("Outcome=%s TripsCreated=%d", scheduled.Outcome, scheduled.TripsCreated)
	}
	if len(scheduled.Unassigned) != 0 || len(scheduled.Errors) != 0 {
		t.Errorf("Unassigned=%v Errors=%v, want none", scheduled.Unassigned, scheduled.Errors)
	}
	if len(f.store.Trips()) != 1 {
		t.Errorf("trips = %d, want 1", len(f.store.Trips()))
	}
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("slot-0730-r%d", i)
		rec := f.store.ServiceDay(id, monday)
		if rec == nil || rec.Outcome != domain.ServiceDayTripGenerated || rec.VehicleTripID != trip.ID {
			t.Errorf("service day for %s = %+v, want trip_generated on %s", id, rec, trip.ID)
		}
	}
	if len(f.notifier.NotGenerated) != 0 {
		t.Errorf("rider notifications = %v, want none", f.notifier.NotGenerated)
	}
}

func TestGuard_DuplicateTripFromAnotherWriterLeavesRidersAlone(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)
	seedThreeRiders(f, slotPM)
	f.store.CreateTripError = func(trip *domain.VehicleTrip) error {
		if trip.TimeSlotID == slotAM {
			return repository.ErrDuplicateTrip
		}
		return nil
	}

	summary, err := f.service().RunForDate(context.Background(), monday)
	if err != nil {
		t.Fatalf("RunForDate() error = %v", err)
	}
	if summary.TripsCreated != 1 {
		t.Errorf("TripsCreated = %d, want 1", summary.TripsCreated)
	}
	if !containsError(summary, "already exists") {
		t.Errorf("Errors = %v, want skipped key noted", summary.Errors)
	}
	if len(summary.Unassigned) != 0 {
		t.Errorf("Unassigned = %v, want none", summary.Unassigned)
	}
	if rec := f.store.ServiceDay("slot-0730-r1", monday); rec != nil {
		t.Errorf("record written for rider of the other trip: %+v", rec)
	}
	if len(f.notifier.NotGenerated) != 0 {
		t.Errorf("rider notifications = %v, want none", f.notifier.NotGenerated)
	}
}

func TestGuard_SingleFlight(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)
	opt := &MockOptimizer{
		Proposal: &domain.TripProposal{Trips: []domain.ProposedTrip{
			proposedTrip(slotAM, 4, sub("slot-0730-r1"), sub("slot-0730-r2"), sub("slot-0730-r3")),
		}},
		Entered: make(chan struct{}),
		Block:   make(chan struct{}),
	}
	f.optimizer = opt
	svc := f.service()

	type result struct {
		summary *domain.RunSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := svc.RunForDate(context.Background(), monday)
		done <- result{s, err}
	}()

	select {
	case <-opt.Entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never reached the optimizer")
	}

	if !svc.Running() {
		t.Error("Running() = false during a run")
	}

	second, err := svc.RunForDate(context.Background(), monday)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if second.Outcome != domain.RunRejectedRunning {
		t.Errorf("Outcome = %s, want rejected_running", second.Outcome)
	}
	if len(second.Errors) != 1 || second.Errors[0] != "Service already running" {
		t.Errorf("Errors = %v", second.Errors)
	}
	if second.TripsCreated != 0 {
		t.Errorf("TripsCreated = %d", second.TripsCreated)
	}

	close(opt.Block)
	first := <-done
	if first.err != nil {
		t.Fatalf("first run error = %v", first.err)
	}
	if first.summary.TripsCreated != 1 {
		t.Errorf("first run TripsCreated = %d", first.summary.TripsCreated)
	}
	if svc.Running() {
		t.Error("Running() = true after run finished")
	}
	if len(f.store.Trips()) != 1 {
		t.Errorf("trips = %d, want 1", len(f.store.Trips()))
	}
}

func TestGuard_LeaseHeldByAnotherProcess(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)
	f.lease.HoldElsewhere()
	svc := f.service()

	summary, err := svc.RunForDate(context.Background(), monday)
	if err != nil {
		t.Fatalf("RunForDate() error = %v", err)
	}
	if summary.Outcome != domain.RunRejectedRunning {
		t.Errorf("Outcome = %s, want rejected_running", summary.Outcome)
	}
	if f.requests.ListRecurringCallCount != 0 || len(f.store.Trips()) != 0 {
		t.Error("rejected run touched state")
	}
	if svc.Running() {
		t.Error("Running() = true after lease rejection")
	}
}

func TestGuard_LeaseOutageDoesNotBlockRun(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)
	f.lease.AcquireError = errors.New("dial tcp: connection refused")

	summary, err := f.service().RunForDate(context.Background(), monday)
	if err != nil {
		t.Fatalf("RunForDate() error = %v", err)
	}
	if summary.Outcome != domain.RunCompleted || summary.TripsCreated != 1 {
		t.Errorf("Outcome=%s TripsCreated=%d", summary.Outcome, summary.TripsCreated)
	}
}

func TestGuard_LeaseReleasedAfterRun(t *testing.T) {
	t.Parallel()

	f := newEngineFixture()
	seedThreeRiders(f, slotAM)

	if _, err := f.service().RunForDate(context.Background(), monday); err != nil {
		t.Fatalf("RunForDate() error = %v", err)
	}
	if f.lease.Held() {
		t.Error("lease still held after run")
	}
	cached, _ := f.summaries.GetSummary(context.Background(), "2026-10-19")
	if cached == nil || cached.TripsCreated != 1 {
		t.Errorf("cached summary = %+v", cached)
	}
}

func TestSchedule_TomorrowInServiceTimeZone(t *testing.T) {
	t.Parallel()

	dhaka, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"nightly trigger", time.Date(2026, 10, 18, 22, 0, 0, 0, dhaka), "2026-10-19"},
		{"after local midnight", time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC), "2026-10-20"},
		{"before local midnight", time.Date(2026, 10, 18, 17, 0, 0, 0, time.UTC), "2026-10-19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture()
			f.location = dhaka
			now := tt.now
			f.now = func() time.Time { return now }

			svc := f.service()
			if got := svc.Tomorrow().Format("2006-01-02"); got != tt.want {
				t.Errorf("Tomorrow() = %s, want %s", got, tt.want)
			}

			summary, err := svc.RunScheduled(context.Background())
			if err != nil {
				t.Fatalf("RunScheduled() error = %v", err)
			}
			if summary.Date != tt.want {
				t.Errorf("summary.Date = %s, want %s", summary.Date, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	svc := newEngineFixture().service()
	if _, err := svc.ParseDate("2026-13-40"); err == nil {
		t.Error("ParseDate() accepted an invalid date")
	}
	date, err := svc.ParseDate("2026-10-19")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if !date.Equal(monday) {
		t.Errorf("ParseDate() = %v, want %v", date, monday)
	}
}
