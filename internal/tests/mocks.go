package tests

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/redis"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/service"
)

// ──────────────────────────────────────────────
// MOCK REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRequestRepository serves fixed demand.
type MockRequestRepository struct {
	mu        sync.RWMutex
	recurring []*domain.RecurringRequest
	oneOff    []*domain.OneOffRequest

	// Counters for verification
	ListRecurringCallCount int32

	// Error injection
	ListRecurringError error
}

// NewMockRequestRepository creates a new mock request repository.
func NewMockRequestRepository() *MockRequestRepository {
	return &MockRequestRepository{}
}

// AddRecurring adds recurring requests.
func (m *MockRequestRepository) AddRecurring(reqs ...*domain.RecurringRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recurring = append(m.recurring, reqs...)
}

// AddOneOff adds one-off requests.
func (m *MockRequestRepository) AddOneOff(reqs ...*domain.OneOffRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oneOff = append(m.oneOff, reqs...)
}

func (m *MockRequestRepository) ListActiveRecurring(ctx context.Context, weekday time.Weekday) ([]*domain.RecurringRequest, error) {
	atomic.AddInt32(&m.ListRecurringCallCount, 1)
	if m.ListRecurringError != nil {
		return nil, m.ListRecurringError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.RecurringRequest
	for _, r := range m.recurring {
		if r.ActiveOn(weekday) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRequestRepository) ListOneOffForDate(ctx context.Context, date time.Time) ([]*domain.OneOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OneOffRequest
	for _, r := range m.oneOff {
		if r.TravelDate.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, r)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK REFERENCE REPOSITORY
// ──────────────────────────────────────────────

// MockReferenceRepository serves boarding points, riders and blackout dates.
type MockReferenceRepository struct {
	mu        sync.RWMutex
	points    []*domain.BoardingPoint
	riders    map[string]*domain.Rider
	blackouts map[string]bool

	// Counters for verification
	BlackoutCallCount       int32
	ListBoardingPointsCalls int32
}

// NewMockReferenceRepository creates a new mock reference repository.
func NewMockReferenceRepository() *MockReferenceRepository {
	return &MockReferenceRepository{
		riders:    make(map[string]*domain.Rider),
		blackouts: make(map[string]bool),
	}
}

// AddBoardingPoint adds a boarding point.
func (m *MockReferenceRepository) AddBoardingPoint(p *domain.BoardingPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, p)
}

// AddRider adds a rider.
func (m *MockReferenceRepository) AddRider(r *domain.Rider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[r.ID] = r
}

// AddBlackout marks a date (YYYY-MM-DD) as blackout.
func (m *MockReferenceRepository) AddBlackout(date string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blackouts[date] = true
}

func (m *MockReferenceRepository) ListBoardingPoints(ctx context.Context) ([]*domain.BoardingPoint, error) {
	atomic.AddInt32(&m.ListBoardingPointsCalls, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.BoardingPoint(nil), m.points...), nil
}

func (m *MockReferenceRepository) GetRidersByIDs(ctx context.Context, ids []string) ([]*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Rider
	for _, id := range ids {
		if r, ok := m.riders[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReferenceRepository) IsBlackoutDate(ctx context.Context, date time.Time) (bool, error) {
	atomic.AddInt32(&m.BlackoutCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blackouts[date.Format("2006-01-02")], nil
}

// ──────────────────────────────────────────────
// MOCK TRIP STORE
// ──────────────────────────────────────────────

// MockTripStore implements the trip, assignment and service-day
// repositories and the transactor. Writes inside WithinTx are staged and
// only become visible when fn succeeds.
type MockTripStore struct {
	mu          sync.RWMutex
	trips       []*domain.VehicleTrip
	assignments map[string][]*domain.TripAssignment
	serviceDays map[string]*domain.ServiceDayRecord

	// Counters for verification
	TxCallCount int32

	// Error injection: CreateTripError is consulted for every trip.
	CreateTripError func(trip *domain.VehicleTrip) error
	UpsertError     error
}

// NewMockTripStore creates a new mock trip store.
func NewMockTripStore() *MockTripStore {
	return &MockTripStore{
		assignments: make(map[string][]*domain.TripAssignment),
		serviceDays: make(map[string]*domain.ServiceDayRecord),
	}
}

func serviceDayKey(requestID string, date time.Time) string {
	return requestID + "@" + date.Format("2006-01-02")
}

// AddTrip seeds an existing trip.
func (m *MockTripStore) AddTrip(trip *domain.VehicleTrip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = append(m.trips, trip)
}

func (m *MockTripStore) hasKey(trip *domain.VehicleTrip) bool {
	for _, t := range m.trips {
		if t.RouteID == trip.RouteID && t.TimeSlotID == trip.TimeSlotID &&
			t.ServiceDate.Format("2006-01-02") == trip.ServiceDate.Format("2006-01-02") {
			return true
		}
	}
	return false
}

func (m *MockTripStore) Create(ctx context.Context, trip *domain.VehicleTrip) error {
	if m.CreateTripError != nil {
		if err := m.CreateTripError(trip); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasKey(trip) {
		return repository.ErrDuplicateTrip
	}
	m.trips = append(m.trips, trip)
	return nil
}

func (m *MockTripStore) CountByDate(ctx context.Context, date time.Time) (int, error) {
	trips, _ := m.ListByDate(ctx, date)
	return len(trips), nil
}

func (m *MockTripStore) ListByDate(ctx context.Context, date time.Time) ([]*domain.VehicleTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.VehicleTrip
	for _, t := range m.trips {
		if t.ServiceDate.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceCode < out[j].ReferenceCode })
	return out, nil
}

func (m *MockTripStore) CreateBatch(ctx context.Context, assignments []*domain.TripAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range assignments {
		m.assignments[a.TripID] = append(m.assignments[a.TripID], a)
	}
	return nil
}

func (m *MockTripStore) ListByTripIDs(ctx context.Context, tripIDs []string) (map[string][]*domain.TripAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]*domain.TripAssignment, len(tripIDs))
	for _, id := range tripIDs {
		out[id] = m.assignments[id]
	}
	return out, nil
}

func (m *MockTripStore) Upsert(ctx context.Context, records []*domain.ServiceDayRecord) error {
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.putServiceDay(r)
	}
	return nil
}

// putServiceDay keeps a final outcome; only a scheduled placeholder is
// replaced. Caller holds mu.
func (m *MockTripStore) putServiceDay(r *domain.ServiceDayRecord) {
	key := serviceDayKey(r.RequestID, r.ServiceDate)
	if prev, ok := m.serviceDays[key]; ok && prev.Outcome != domain.ServiceDayScheduled {
		return
	}
	m.serviceDays[key] = r
}

// SeedServiceDay stores a record as an earlier writer would have.
func (m *MockTripStore) SeedServiceDay(r *domain.ServiceDayRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serviceDays[serviceDayKey(r.RequestID, r.ServiceDate)] = r
}

// WithinTx stages writes and applies them only if fn succeeds.
func (m *MockTripStore) WithinTx(ctx context.Context, fn func(ctx context.Context, w repository.TripWriters) error) error {
	atomic.AddInt32(&m.TxCallCount, 1)
	stage := &stagedTx{parent: m}
	if err := fn(ctx, repository.TripWriters{Trips: stage, Assignments: stage, ServiceDays: stage}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, trip := range stage.trips {
		if m.hasKey(trip) {
			return repository.ErrDuplicateTrip
		}
	}
	m.trips = append(m.trips, stage.trips...)
	for _, a := range stage.assignments {
		m.assignments[a.TripID] = append(m.assignments[a.TripID], a)
	}
	for _, r := range stage.records {
		m.putServiceDay(r)
	}
	return nil
}

// Trips returns every stored trip for assertions.
func (m *MockTripStore) Trips() []*domain.VehicleTrip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.VehicleTrip(nil), m.trips...)
}

// Assignments returns a trip's assignments for assertions.
func (m *MockTripStore) Assignments(tripID string) []*domain.TripAssignment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assignments[tripID]
}

// ServiceDay returns the record for a source request id on date.
func (m *MockTripStore) ServiceDay(requestID string, date time.Time) *domain.ServiceDayRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.serviceDays[serviceDayKey(requestID, date)]
}

type stagedTx struct {
	parent      *MockTripStore
	trips       []*domain.VehicleTrip
	assignments []*domain.TripAssignment
	records     []*domain.ServiceDayRecord
}

func (s *stagedTx) Create(ctx context.Context, trip *domain.VehicleTrip) error {
	if s.parent.CreateTripError != nil {
		if err := s.parent.CreateTripError(trip); err != nil {
			return err
		}
	}
	s.trips = append(s.trips, trip)
	return nil
}

func (s *stagedTx) CountByDate(ctx context.Context, date time.Time) (int, error) {
	return s.parent.CountByDate(ctx, date)
}

func (s *stagedTx) ListByDate(ctx context.Context, date time.Time) ([]*domain.VehicleTrip, error) {
	return s.parent.ListByDate(ctx, date)
}

func (s *stagedTx) CreateBatch(ctx context.Context, assignments []*domain.TripAssignment) error {
	s.assignments = append(s.assignments, assignments...)
	return nil
}

func (s *stagedTx) ListByTripIDs(ctx context.Context, tripIDs []string) (map[string][]*domain.TripAssignment, error) {
	return s.parent.ListByTripIDs(ctx, tripIDs)
}

func (s *stagedTx) Upsert(ctx context.Context, records []*domain.ServiceDayRecord) error {
	if s.parent.UpsertError != nil {
		return s.parent.UpsertError
	}
	s.records = append(s.records, records...)
	return nil
}

// ──────────────────────────────────────────────
// MOCK OPTIMIZER
// ──────────────────────────────────────────────

// MockOptimizer returns a canned proposal or error. When Block is set,
// Propose signals Entered and waits for Block to close.
type MockOptimizer struct {
	Proposal *domain.TripProposal
	Err      error
	Entered  chan struct{}
	Block    chan struct{}

	CallCount int32
}

func (m *MockOptimizer) Propose(ctx context.Context, requests []domain.UnifiedRequest, date time.Time) (*domain.TripProposal, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Block != nil {
		if m.Entered != nil {
			close(m.Entered)
		}
		<-m.Block
	}
	return m.Proposal, m.Err
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records notifications.
type MockNotifier struct {
	mu             sync.Mutex
	DriverNeeded   []string
	NotGenerated   map[string]string
	Reports        []*domain.RunSummary
	FailEverything bool
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{NotGenerated: make(map[string]string)}
}

var errNotificationDown = errors.New("notification gateway down")

func (m *MockNotifier) NotifyDriverAssignmentNeeded(ctx context.Context, trip *domain.VehicleTrip, passengers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DriverNeeded = append(m.DriverNeeded, trip.ReferenceCode)
	if m.FailEverything {
		return errNotificationDown
	}
	return nil
}

func (m *MockNotifier) NotifyTripNotGenerated(ctx context.Context, riderID string, date time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotGenerated[riderID] = reason
	if m.FailEverything {
		return errNotificationDown
	}
	return nil
}

func (m *MockNotifier) NotifyRunReport(ctx context.Context, summary *domain.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, summary)
	if m.FailEverything {
		return errNotificationDown
	}
	return nil
}

// ReportCount returns the number of admin reports sent.
func (m *MockNotifier) ReportCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Reports)
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLeaseStore simulates the cross-process run lease.
type MockLeaseStore struct {
	mu     sync.Mutex
	holder string
	seq    int

	AcquireError error
}

func (m *MockLeaseStore) AcquireRunLease(ctx context.Context, ttl time.Duration) (string, error) {
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holder != "" {
		return "", nil
	}
	m.seq++
	m.holder = "token-" + strconv.Itoa(m.seq)
	return m.holder, nil
}

func (m *MockLeaseStore) ReleaseRunLease(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holder == token {
		m.holder = ""
	}
	return nil
}

// HoldElsewhere simulates another process holding the lease.
func (m *MockLeaseStore) HoldElsewhere() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holder = "other-process"
}

// Held reports whether anyone holds the lease.
func (m *MockLeaseStore) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder != ""
}

// MockSummaryStore keeps summaries in memory.
type MockSummaryStore struct {
	mu        sync.Mutex
	summaries map[string]*domain.RunSummary
}

// NewMockSummaryStore creates a new mock summary store.
func NewMockSummaryStore() *MockSummaryStore {
	return &MockSummaryStore{summaries: make(map[string]*domain.RunSummary)}
}

func (m *MockSummaryStore) GetSummary(ctx context.Context, date string) (*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaries[date], nil
}

func (m *MockSummaryStore) SetSummary(ctx context.Context, summary *domain.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[summary.Date] = summary
	return nil
}

// Ensure mocks implement interfaces.
var (
	_ repository.RequestRepository    = (*MockRequestRepository)(nil)
	_ repository.ReferenceRepository  = (*MockReferenceRepository)(nil)
	_ repository.CalendarRepository   = (*MockReferenceRepository)(nil)
	_ repository.TripRepository       = (*MockTripStore)(nil)
	_ repository.AssignmentRepository = (*MockTripStore)(nil)
	_ repository.ServiceDayRepository = (*MockTripStore)(nil)
	_ repository.Transactor           = (*MockTripStore)(nil)
	_ service.Notifier                = (*MockNotifier)(nil)
	_ redis.RunLeaseStoreInterface    = (*MockLeaseStore)(nil)
	_ redis.SummaryStoreInterface     = (*MockSummaryStore)(nil)
)
