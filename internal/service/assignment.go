package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/assignment"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/logging"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/optimizer"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/redis"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
)

const (
	dateLayout          = "2006-01-02"
	referenceDateLayout = "20060102"

	// ReasonTripNotSaved is given to members of a trip whose write failed.
	ReasonTripNotSaved = "trip could not be saved"

	defaultLeaseTTL = 30 * time.Minute
)

// AssignmentDeps contains the collaborators of AssignmentService.
// Lease, Summaries, NewRelic, Notifier and Logger are optional.
type AssignmentDeps struct {
	Requests    repository.RequestRepository
	Calendar    repository.CalendarRepository
	Trips       repository.TripRepository
	ServiceDays repository.ServiceDayRepository
	Tx          repository.Transactor
	Reference   *ReferenceCache
	Optimizer   optimizer.Strategy
	Notifier    Notifier
	Lease       redis.RunLeaseStoreInterface
	Summaries   redis.SummaryStoreInterface
	NewRelic    *newrelic.Application
	Logger      *slog.Logger
}

// AssignmentOptions are the engine tunables.
type AssignmentOptions struct {
	Policy   assignment.Policy
	Location *time.Location
	Weekend  []time.Weekday
	LeaseTTL time.Duration
	Now      func() time.Time
}

// AssignmentService turns a day's demand into persisted vehicle trips.
// It is Idle or Running; at most one run executes at a time.
type AssignmentService struct {
	deps AssignmentDeps
	opts AssignmentOptions

	mu      sync.Mutex
	running bool
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(deps AssignmentDeps, opts AssignmentOptions) *AssignmentService {
	if deps.Optimizer == nil {
		deps.Optimizer = optimizer.Disabled{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = NewNotificationService(NewLogSender(deps.Logger), nil, nil)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = defaultLeaseTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Weekend == nil {
		opts.Weekend = []time.Weekday{time.Saturday, time.Sunday}
	}
	return &AssignmentService{deps: deps, opts: opts}
}

// Running reports whether a run is in progress in this process.
func (s *AssignmentService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ParseDate parses YYYY-MM-DD as a calendar day in the service time zone.
func (s *AssignmentService) ParseDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, value, s.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return date, nil
}

// Tomorrow returns the next calendar day in the service time zone.
func (s *AssignmentService) Tomorrow() time.Time {
	now := s.opts.Now().In(s.opts.Location)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.opts.Location)
}

// RunScheduled runs the engine for tomorrow.
func (s *AssignmentService) RunScheduled(ctx context.Context) (*domain.RunSummary, error) {
	return s.run(ctx, s.Tomorrow(), domain.TriggerScheduled)
}

// RunForDate runs the engine for an explicit date. Unlike scheduled runs
// it refuses dates that already have trips. Reference data is reloaded so
// an operator's fixes take effect without waiting for the cache to expire.
func (s *AssignmentService) RunForDate(ctx context.Context, date time.Time) (*domain.RunSummary, error) {
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.opts.Location)
	if s.deps.Reference != nil {
		s.deps.Reference.Flush()
	}
	return s.run(ctx, date, domain.TriggerManual)
}

// tryStart moves Idle to Running. The returned release must be called
// exactly once.
func (s *AssignmentService) tryStart(ctx context.Context, logger *slog.Logger) (release func(), ok bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, false
	}
	s.running = true
	s.mu.Unlock()

	local := func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}

	if s.deps.Lease == nil {
		return local, true
	}

	token, err := s.deps.Lease.AcquireRunLease(ctx, s.opts.LeaseTTL)
	if err != nil {
		// Trips carry a unique (route, slot, date) index, so a lost lease
		// cannot double-book; keep the nightly run alive.
		logging.LogError(logger, "run lease unavailable, continuing with in-process guard", err)
		return local, true
	}
	if token == "" {
		local()
		return nil, false
	}

	return func() {
		if err := s.deps.Lease.ReleaseRunLease(context.WithoutCancel(ctx), token); err != nil {
			logging.LogError(logger, "failed to release run lease", err)
		}
		local()
	}, true
}

func (s *AssignmentService) newSummary(date time.Time, trigger domain.RunTrigger) *domain.RunSummary {
	return &domain.RunSummary{
		Date:       date.Format(dateLayout),
		DayOfWeek:  date.Weekday().String(),
		Unassigned: []domain.UnassignedRider{},
		Errors:     []string{},
		Trigger:    trigger,
		StartedAt:  s.opts.Now(),
	}
}

func (s *AssignmentService) isWeekend(date time.Time) bool {
	for _, day := range s.opts.Weekend {
		if date.Weekday() == day {
			return true
		}
	}
	return false
}

// run is not cancellable: once started it completes or fails, so service-day
// records and rider notifications are never left half written. ctx only
// carries values.
func (s *AssignmentService) run(ctx context.Context, date time.Time, trigger domain.RunTrigger) (summary *domain.RunSummary, err error) {
	ctx = context.WithoutCancel(ctx)
	logger := s.deps.Logger.With(
		slog.String("service_date", date.Format(dateLayout)),
		slog.String("trigger", string(trigger)))
	ctx = logging.WithLogger(ctx, logger)

	summary = s.newSummary(date, trigger)

	release, ok := s.tryStart(ctx, logger)
	if !ok {
		summary.Outcome = domain.RunRejectedRunning
		summary.AddError(msgAlreadyRunning)
		summary.FinishedAt = s.opts.Now()
		logger.Warn("assignment run rejected: already running")
		return summary, nil
	}
	defer release()

	if s.deps.NewRelic != nil {
		txn := s.deps.NewRelic.StartTransaction("assignment-run")
		txn.AddAttribute("serviceDate", summary.Date)
		txn.AddAttribute("trigger", string(trigger))
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("assignment run panicked: %v", r)
			s.fail(ctx, logger, summary, err)
		}
	}()

	logging.LogOperation(logger, "assignment run started")

	if err := s.execute(ctx, logger, date, trigger, summary); err != nil {
		s.fail(ctx, logger, summary, err)
		return summary, err
	}

	s.finish(ctx, logger, summary)
	return summary, nil
}

// fail records a fatal error. Trips persisted before it are kept.
func (s *AssignmentService) fail(ctx context.Context, logger *slog.Logger, summary *domain.RunSummary, err error) {
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(err)
	}
	summary.Outcome = domain.RunFailed
	summary.AddError(err.Error())
	logging.LogError(logger, "assignment run failed", err,
		slog.Int("trips_created", summary.TripsCreated))
	s.finish(ctx, logger, summary)
}

// finish stamps the summary, caches it and sends the admin report. Both
// side effects are best effort.
func (s *AssignmentService) finish(ctx context.Context, logger *slog.Logger, summary *domain.RunSummary) {
	summary.FinishedAt = s.opts.Now()
	ctx = context.WithoutCancel(ctx)

	logging.LogOperation(logger, "assignment run finished",
		slog.String("outcome", string(summary.Outcome)),
		slog.String("provenance", string(summary.Provenance)),
		slog.Int("trips_created", summary.TripsCreated),
		slog.Int("quorum_rejected_trips", summary.QuorumRejectedTrips),
		slog.Int("passengers_assigned", summary.PassengersAssigned),
		slog.Int("unassigned", len(summary.Unassigned)),
		slog.Int("errors", len(summary.Errors)),
		slog.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)))

	// A rejected duplicate must not overwrite the summary of the run that
	// created the trips.
	if s.deps.Summaries != nil && summary.Outcome != domain.RunRejectedDuplicate {
		if err := s.deps.Summaries.SetSummary(ctx, summary); err != nil {
			logging.LogError(logger, "failed to cache run summary", err)
		}
	}
	if err := s.deps.Notifier.NotifyRunReport(ctx, summary); err != nil {
		logging.LogError(logger, "failed to send run report", err)
	}
}

// execute applies the date guards and then the full pipeline. A returned
// error is fatal.
func (s *AssignmentService) execute(ctx context.Context, logger *slog.Logger, date time.Time, trigger domain.RunTrigger, summary *domain.RunSummary) error {
	if s.isWeekend(date) {
		summary.IsWeekend = true
		summary.Outcome = domain.RunSkippedWeekend
		logger.Info("assignment run skipped: weekend")
		return nil
	}

	blackout, err := s.deps.Calendar.IsBlackoutDate(ctx, date)
	if err != nil {
		return err
	}
	if blackout {
		summary.IsBlackout = true
		summary.Outcome = domain.RunSkippedBlackout
		logger.Info("assignment run skipped: blackout date")
		return nil
	}

	existing, err := s.deps.Trips.CountByDate(ctx, date)
	if err != nil {
		return err
	}
	if trigger == domain.TriggerManual && existing > 0 {
		summary.Outcome = domain.RunRejectedDuplicate
		summary.AddError(fmt.Sprintf("%s: %d trips on %s", ErrTripsAlreadyExist, existing, summary.Date))
		logger.Warn("assignment run rejected: trips already exist", slog.Int("existing_trips", existing))
		return nil
	}

	requests, err := s.loadRequests(ctx, logger, date)
	if err != nil {
		return err
	}
	if existing > 0 {
		if requests, err = s.dropServedKeys(ctx, logger, date, requests); err != nil {
			return err
		}
	}

	plan := s.plan(ctx, logger, requests, date, summary)

	for _, anomaly := range plan.Anomalies {
		logger.Error("assignment anomaly",
			slog.String("kind", string(anomaly.Kind)),
			slog.String("key", anomaly.Key.String()),
			slog.String("detail", anomaly.Message))
		summary.AddError(anomaly.String())
	}
	summary.QuorumRejectedTrips = plan.QuorumRejected
	if plan.QuorumRejected > 0 {
		logger.Info("trips rejected by quorum", slog.Int("count", plan.QuorumRejected))
	}

	unassigned := plan.Unassigned
	for i, candidate := range plan.Trips {
		trip, err := s.persistTrip(ctx, date, existing+i+1, candidate)
		if errors.Is(err, repository.ErrDuplicateTrip) {
			// Another writer created this key's trip; its riders are served there.
			logger.Warn("trip already exists for key, leaving its riders untouched",
				slog.String("key", candidate.Key.String()))
			summary.AddError(fmt.Sprintf("trip for %s already exists, skipped", candidate.Key))
			continue
		}
		if err != nil {
			logging.LogError(logger, "failed to persist trip", err, slog.String("key", candidate.Key.String()))
			summary.AddError(fmt.Sprintf("failed to persist trip for %s: %v", candidate.Key, err))
			for _, member := range candidate.Members {
				unassigned = append(unassigned, assignment.Unassigned{Request: member, Reason: ReasonTripNotSaved})
			}
			continue
		}

		summary.TripsCreated++
		summary.PassengersAssigned += len(candidate.Members)
		logging.LogOperation(logger, "trip created",
			slog.String("reference_code", trip.ReferenceCode),
			slog.String("key", candidate.Key.String()),
			slog.Int("vehicle_capacity", trip.VehicleCapacity),
			slog.Int("members", len(candidate.Members)),
			slog.Int("recurring", candidate.RecurringCount()))

		if err := s.deps.Notifier.NotifyDriverAssignmentNeeded(ctx, trip, len(candidate.Members)); err != nil {
			logging.LogError(logger, "failed to notify driver assignment", err, slog.String("trip_id", trip.ID))
		}
	}

	s.recordUnassigned(ctx, logger, date, unassigned, summary)

	summary.Outcome = domain.RunCompleted
	return nil
}

// dropServedKeys removes requests whose (route, slot) already has a trip on
// date. Those riders were planned by an earlier run and keep its outcome.
func (s *AssignmentService) dropServedKeys(ctx context.Context, logger *slog.Logger, date time.Time, requests []domain.UnifiedRequest) ([]domain.UnifiedRequest, error) {
	trips, err := s.deps.Trips.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	served := make(map[assignment.Key]bool, len(trips))
	for _, trip := range trips {
		served[assignment.Key{RouteID: trip.RouteID, TimeSlotID: trip.TimeSlotID}] = true
	}

	kept := requests[:0:0]
	for _, r := range requests {
		if !served[assignment.KeyOf(r)] {
			kept = append(kept, r)
		}
	}
	if dropped := len(requests) - len(kept); dropped > 0 {
		logging.LogOperation(logger, "skipping route/slots that already have trips",
			slog.Int("existing_trips", len(trips)),
			slog.Int("requests_skipped", dropped))
	}
	return kept, nil
}

func (s *AssignmentService) loadRequests(ctx context.Context, logger *slog.Logger, date time.Time) ([]domain.UnifiedRequest, error) {
	recurring, err := s.deps.Requests.ListActiveRecurring(ctx, date.Weekday())
	if err != nil {
		return nil, err
	}
	oneOff, err := s.deps.Requests.ListOneOffForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	points, err := s.deps.Reference.BoardingPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("load boarding points: %w", err)
	}

	riderIDs := make([]string, 0, len(recurring))
	for _, r := range recurring {
		riderIDs = append(riderIDs, r.RiderID)
	}
	riders, err := s.deps.Reference.Riders(ctx, riderIDs)
	if err != nil {
		logging.LogError(logger, "failed to load rider names", err)
	}

	unified := assignment.Unify(recurring, oneOff, assignment.Lookup{BoardingPoints: points, Riders: riders})
	logging.LogOperation(logger, "requests unified",
		slog.Int("recurring", len(recurring)),
		slog.Int("one_off", len(oneOff)))
	return unified, nil
}

// plan asks the optimizer and repairs its answer, or falls back to the
// rule-based path when it is unavailable.
func (s *AssignmentService) plan(ctx context.Context, logger *slog.Logger, requests []domain.UnifiedRequest, date time.Time, summary *domain.RunSummary) assignment.Plan {
	policy := s.opts.Policy

	if len(requests) == 0 {
		summary.Provenance = domain.ProvenanceFallback
		return assignment.Plan{}
	}

	var proposal *domain.TripProposal
	var err error
	func() {
		if txn := newrelic.FromContext(ctx); txn != nil {
			defer txn.StartSegment("optimizer.Propose").End()
		}
		proposal, err = s.deps.Optimizer.Propose(ctx, requests, date)
	}()
	if err == nil {
		// Every strategy is untrusted, not only the HTTP one.
		if verr := optimizer.Validate(proposal); verr != nil {
			err = fmt.Errorf("%w: %w", optimizer.ErrUnavailable, verr)
		}
	}

	if err != nil {
		if errors.Is(err, optimizer.ErrUnavailable) {
			logger.Warn("optimizer unavailable, using rule-based assignment", slog.String("error", err.Error()))
		} else {
			logging.LogError(logger, "optimizer failed, using rule-based assignment", err)
		}
		summary.AddError(fmt.Sprintf("optimizer unavailable, used rule-based fallback: %v", err))
		summary.Provenance = domain.ProvenanceFallback
		return assignment.ApplyQuorum(assignment.Fallback(requests, policy), policy.Quorum)
	}

	summary.Provenance = domain.ProvenanceOptimizer
	logging.LogOperation(logger, "optimizer proposal received",
		slog.Int("proposed_trips", len(proposal.Trips)),
		slog.Int("proposed_unassigned", len(proposal.Unassigned)))
	return assignment.ApplyQuorum(assignment.Repair(proposal, requests, policy), policy.Quorum)
}

// persistTrip writes one trip with its assignments and service-day records
// in a single transaction.
func (s *AssignmentService) persistTrip(ctx context.Context, date time.Time, ordinal int, candidate assignment.CandidateTrip) (*domain.VehicleTrip, error) {
	trip := &domain.VehicleTrip{
		ID:              uuid.NewString(),
		ReferenceCode:   fmt.Sprintf("TRP-%s-%03d", date.Format(referenceDateLayout), ordinal),
		RouteID:         candidate.Key.RouteID,
		TimeSlotID:      candidate.Key.TimeSlotID,
		ServiceDate:     date,
		VehicleCapacity: candidate.Capacity,
		Status:          domain.TripStatusPendingDriver,
		Provenance:      candidate.Provenance,
		Confidence:      candidate.Confidence,
		Rationale:       candidate.Rationale,
		CreatedAt:       s.opts.Now(),
	}

	assignments := make([]*domain.TripAssignment, 0, len(candidate.Members))
	var records []*domain.ServiceDayRecord
	for i, member := range candidate.Members {
		assignments = append(assignments, &domain.TripAssignment{
			ID:             uuid.NewString(),
			TripID:         trip.ID,
			RequestID:      member.SourceID,
			SourceKind:     member.SourceKind,
			PickupSequence: i + 1,
		})
		if member.IsRecurring() {
			records = append(records, &domain.ServiceDayRecord{
				RequestID:     member.SourceID,
				ServiceDate:   date,
				Outcome:       domain.ServiceDayTripGenerated,
				VehicleTripID: trip.ID,
			})
		}
	}

	err := s.deps.Tx.WithinTx(ctx, func(ctx context.Context, w repository.TripWriters) error {
		if err := w.Trips.Create(ctx, trip); err != nil {
			return err
		}
		if err := w.Assignments.CreateBatch(ctx, assignments); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return w.ServiceDays.Upsert(ctx, records)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// recordUnassigned fills the summary, writes trip_not_generated records for
// recurring requests and tells those riders.
func (s *AssignmentService) recordUnassigned(ctx context.Context, logger *slog.Logger, date time.Time, unassigned []assignment.Unassigned, summary *domain.RunSummary) {
	var records []*domain.ServiceDayRecord
	for _, u := range unassigned {
		summary.Unassigned = append(summary.Unassigned, domain.UnassignedRider{
			RequestID:   u.Request.ID,
			SourceKind:  u.Request.SourceKind,
			RouteID:     u.Request.RouteID,
			TimeSlotID:  u.Request.TimeSlotID,
			DisplayName: u.Request.DisplayName,
			Reason:      u.Reason,
		})
		if u.Request.IsRecurring() {
			records = append(records, &domain.ServiceDayRecord{
				RequestID:   u.Request.SourceID,
				ServiceDate: date,
				Outcome:     domain.ServiceDayTripNotGenerated,
			})
		}
	}

	if len(records) > 0 {
		if err := s.deps.ServiceDays.Upsert(ctx, records); err != nil {
			logging.LogError(logger, "failed to record service days", err, slog.Int("records", len(records)))
			summary.AddError(fmt.Sprintf("failed to record %d trip_not_generated service days: %v", len(records), err))
		}
	}

	for _, u := range unassigned {
		if !u.Request.IsRecurring() {
			continue
		}
		if err := s.deps.Notifier.NotifyTripNotGenerated(ctx, u.Request.RiderID, date, u.Reason); err != nil {
			logging.LogError(logger, "failed to notify rider", err, slog.String("request_id", u.Request.ID))
		}
	}
}
