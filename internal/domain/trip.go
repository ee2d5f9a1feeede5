package domain

import "time"

// TripStatus represents the lifecycle status of a vehicle trip.
type TripStatus string

const (
	// TripStatusPendingDriver is the status every generated trip starts in.
	// Driver assignment and later transitions happen outside the engine.
	TripStatusPendingDriver  TripStatus = "PENDING_DRIVER_ASSIGNMENT"
	TripStatusDriverAssigned TripStatus = "DRIVER_ASSIGNED"
	TripStatusCompleted      TripStatus = "COMPLETED"
	TripStatusCancelled      TripStatus = "CANCELLED"
)

// Provenance records which algorithm produced a trip.
type Provenance string

const (
	ProvenanceOptimizer Provenance = "optimizer"
	ProvenanceFallback  Provenance = "fallback"
)

// VehicleTrip is one vehicle run for a (route, slot, date).
type VehicleTrip struct {
	ID              string
	ReferenceCode   string
	RouteID         string
	TimeSlotID      string
	ServiceDate     time.Time
	VehicleCapacity int
	Status          TripStatus
	Provenance      Provenance
	Confidence      float64
	Rationale       string
	CreatedAt       time.Time
}

// TripAssignment links a request to a trip with its 1-based pickup position.
type TripAssignment struct {
	ID             string
	TripID         string
	RequestID      string // source request id, without the unified prefix
	SourceKind     SourceKind
	PickupSequence int
}

// ServiceDayOutcome is the fixed outcome of a recurring request on a date.
type ServiceDayOutcome string

const (
	ServiceDayScheduled        ServiceDayOutcome = "scheduled"
	ServiceDayTripGenerated    ServiceDayOutcome = "trip_generated"
	ServiceDayTripNotGenerated ServiceDayOutcome = "trip_not_generated"
)

// ServiceDayRecord is consumed by the refund process.
type ServiceDayRecord struct {
	RequestID     string
	ServiceDate   time.Time
	Outcome       ServiceDayOutcome
	VehicleTripID string // Empty unless Outcome is trip_generated
}
