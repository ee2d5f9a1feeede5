package assignment

import (
	"fmt"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// Fallback builds trips from scratch when no usable proposal exists.
// It makes no external calls and produces identical output for identical
// input.
//
// Quorum is checked twice: once on raw demand, and again on what is
// actually assignable after the vehicle has been sized.
func Fallback(requests []domain.UnifiedRequest, policy Policy) Plan {
	var plan Plan

	for _, group := range GroupByKey(requests) {
		recurring, oneOff := SplitByPriority(group.Requests)

		if len(recurring)+len(oneOff) < policy.Quorum {
			plan.unassign(ReasonInsufficientPassengers, recurring...)
			plan.unassign(ReasonInsufficientPassengers, oneOff...)
			plan.QuorumRejected++
			continue
		}

		capacity, overflow := policy.Tiers.Select(len(recurring))
		if overflow {
			plan.Anomalies = append(plan.Anomalies, overflowAnomaly(group.Key, len(recurring), capacity))
		}

		remaining := max(0, capacity-len(recurring))
		take := min(remaining, len(oneOff))
		accepted, rejected := oneOff[:take], oneOff[take:]

		if len(recurring)+len(accepted) < policy.Quorum {
			plan.unassign(ReasonBelowThreshold, recurring...)
			plan.unassign(ReasonBelowThreshold, accepted...)
			plan.unassign(ReasonNoRemainingCapacity, rejected...)
			plan.QuorumRejected++
			continue
		}
		plan.unassign(ReasonNoRemainingCapacity, rejected...)

		members := make([]domain.UnifiedRequest, 0, len(recurring)+len(accepted))
		members = append(members, recurring...)
		members = append(members, accepted...)
		SortBySequence(members)

		plan.Trips = append(plan.Trips, CandidateTrip{
			Key:        group.Key,
			Members:    members,
			Capacity:   capacity,
			Provenance: domain.ProvenanceFallback,
			Rationale: fmt.Sprintf("rule-based: %d recurring + %d one-off on %d-seat vehicle",
				len(recurring), len(accepted), capacity),
			Confidence: 1,
		})
	}

	return plan
}
