package assignment

import (
	"fmt"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// Unassigned reasons. Riders and admins see these verbatim.
const (
	ReasonInsufficientPassengers = "insufficient passengers for trip"
	ReasonBelowThreshold         = "trip below minimum passenger threshold"
	ReasonNoRemainingCapacity    = "no remaining capacity after prioritizing recurring riders"
	ReasonCapacityFullRepair     = "capacity full after prioritizing recurring riders"
	ReasonNoTripProposed         = "no trip proposed for this route/slot"
	ReasonNotSelected            = "not selected by optimizer"
)

// AnomalyKind classifies conditions that should never happen in normal
// operation and need a human to look at them.
type AnomalyKind string

const (
	AnomalyMissingTrip      AnomalyKind = "missing_trip"
	AnomalyCapacityOverflow AnomalyKind = "capacity_overflow"
)

// Anomaly is reported in the run summary and logged at error level.
type Anomaly struct {
	Key     Key
	Kind    AnomalyKind
	Message string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s on %s: %s", a.Kind, a.Key, a.Message)
}

// CandidateTrip is a trip that has not been persisted yet. Members are in
// pickup order.
type CandidateTrip struct {
	Key            Key
	Members        []domain.UnifiedRequest
	Capacity       int
	Provenance     domain.Provenance
	Rationale      string
	Confidence     float64
	AddedRecurring int // recurring riders the repair pass had to add back
}

// RecurringCount returns the number of must-serve members.
func (c CandidateTrip) RecurringCount() int {
	n := 0
	for _, m := range c.Members {
		if m.IsRecurring() {
			n++
		}
	}
	return n
}

// Unassigned is a request left out of every trip, with the reason.
type Unassigned struct {
	Request domain.UnifiedRequest
	Reason  string
}

// Plan is the output of either assignment path.
type Plan struct {
	Trips          []CandidateTrip
	Unassigned     []Unassigned
	Anomalies      []Anomaly
	QuorumRejected int
}

func (p *Plan) unassign(reason string, requests ...domain.UnifiedRequest) {
	for _, r := range requests {
		p.Unassigned = append(p.Unassigned, Unassigned{Request: r, Reason: reason})
	}
}

// Proposal renders the plan in TripProposal form.
func (p Plan) Proposal() domain.TripProposal {
	proposal := domain.TripProposal{
		Trips:      make([]domain.ProposedTrip, 0, len(p.Trips)),
		Unassigned: make([]domain.UnassignedEntry, 0, len(p.Unassigned)),
	}
	for _, trip := range p.Trips {
		ids := make([]string, len(trip.Members))
		for i, m := range trip.Members {
			ids[i] = m.ID
		}
		proposal.Trips = append(proposal.Trips, domain.ProposedTrip{
			RouteID:         trip.Key.RouteID,
			TimeSlotID:      trip.Key.TimeSlotID,
			MemberIDs:       ids,
			VehicleCapacity: trip.Capacity,
			PickupSequence:  ids,
			Rationale:       trip.Rationale,
			Confidence:      trip.Confidence,
		})
	}
	for _, u := range p.Unassigned {
		proposal.Unassigned = append(proposal.Unassigned, domain.UnassignedEntry{
			RequestID: u.Request.ID,
			Reason:    u.Reason,
		})
	}
	return proposal
}

// AssignedCount returns the number of passengers placed on trips.
func (p Plan) AssignedCount() int {
	n := 0
	for _, trip := range p.Trips {
		n += len(trip.Members)
	}
	return n
}
