package domain

import (
	"math"
	"slices"
	"time"
)

// SourceKind identifies which demand source a unified request came from.
type SourceKind string

const (
	SourceRecurring SourceKind = "recurring"
	SourceOneOff    SourceKind = "one_off"
)

// PriorityClass orders demand: recurring riders are served before one-off riders.
type PriorityClass int

const (
	PriorityMustServe     PriorityClass = 1
	PriorityFillRemaining PriorityClass = 2
)

// Unified request id prefixes, one per source.
const (
	RecurringIDPrefix = "sub:"
	OneOffIDPrefix    = "ind:"
)

// UnknownSequenceOrder is used for requests whose boarding point could not
// be resolved; they sort after every known stop.
const UnknownSequenceOrder = math.MaxInt32

// RecurringRequest is a standing, pre-paid subscription seat.
type RecurringRequest struct {
	ID              string
	RiderID         string
	RouteID         string
	TimeSlotID      string
	BoardingPointID string
	DropOffPointID  string
	Weekdays        []time.Weekday
	Active          bool
}

// ActiveOn reports whether the subscription rides on the given weekday.
func (r *RecurringRequest) ActiveOn(weekday time.Weekday) bool {
	return r.Active && slices.Contains(r.Weekdays, weekday)
}

// OneOffRequest is an individual booking for a single date.
type OneOffRequest struct {
	ID              string
	RiderName       string
	RiderPhone      string
	RiderID         string // Optional: empty for guest bookings
	RouteID         string
	TimeSlotID      string
	BoardingPointID string
	DropOffPointID  string
	TravelDate      time.Time
}

// UnifiedRequest is the in-memory, priority-tagged view of either demand
// source. It is rebuilt on every run and never persisted.
type UnifiedRequest struct {
	ID              string
	SourceID        string
	SourceKind      SourceKind
	Priority        PriorityClass
	RouteID         string
	TimeSlotID      string
	BoardingPointID string
	DropOffPointID  string
	RiderID         string
	DisplayName     string
	SequenceOrder   int
}

// IsRecurring reports whether the request is must-serve demand.
func (u UnifiedRequest) IsRecurring() bool {
	return u.SourceKind == SourceRecurring
}
