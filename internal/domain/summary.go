package domain

import "time"

// RunOutcome classifies how a run ended.
type RunOutcome string

const (
	RunCompleted         RunOutcome = "completed"
	RunRejectedRunning   RunOutcome = "rejected_running"
	RunSkippedWeekend    RunOutcome = "skipped_weekend"
	RunSkippedBlackout   RunOutcome = "skipped_blackout"
	RunRejectedDuplicate RunOutcome = "rejected_duplicate"
	RunFailed            RunOutcome = "failed"
)

// RunTrigger records what started a run.
type RunTrigger string

const (
	TriggerScheduled RunTrigger = "scheduled"
	TriggerManual    RunTrigger = "manual"
)

// UnassignedRider is one request that did not get a seat.
type UnassignedRider struct {
	RequestID   string     `json:"requestId"`
	SourceKind  SourceKind `json:"sourceKind"`
	RouteID     string     `json:"routeId"`
	TimeSlotID  string     `json:"timeSlotId"`
	DisplayName string     `json:"displayName,omitempty"`
	Reason      string     `json:"reason"`
}

// RunSummary is returned by every run, including rejected and skipped ones.
type RunSummary struct {
	Date                string            `json:"date"`
	DayOfWeek           string            `json:"dayOfWeek"`
	IsBlackout          bool              `json:"isBlackout"`
	IsWeekend           bool              `json:"isWeekend"`
	TripsCreated        int               `json:"tripsCreated"`
	QuorumRejectedTrips int               `json:"quorumRejectedTrips"`
	PassengersAssigned  int               `json:"passengersAssigned"`
	Unassigned          []UnassignedRider `json:"unassigned"`
	Errors              []string          `json:"errors"`
	Provenance          Provenance        `json:"provenance,omitempty"`
	Outcome             RunOutcome        `json:"outcome"`
	Trigger             RunTrigger        `json:"trigger"`
	StartedAt           time.Time         `json:"startedAt"`
	FinishedAt          time.Time         `json:"finishedAt"`
}

// AddError appends a human-readable error entry.
func (s *RunSummary) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}
