package assignment

import (
	"fmt"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// proposedKey is the optimizer's proposal for one key after merging.
type proposedKey struct {
	capacity   int
	rationale  string
	confidence float64
	members    map[string]bool
}

// Repair turns an untrusted optimizer proposal into a plan in which every
// recurring rider of a proposed key is on that key's trip. The vehicle is
// upsized from the recurring count alone, one-off riders fill what is left
// in pickup order, and anything the proposal got wrong is re-derived from
// the input. The result depends only on its arguments.
func Repair(proposal *domain.TripProposal, requests []domain.UnifiedRequest, policy Policy) Plan {
	byID := make(map[string]domain.UnifiedRequest, len(requests))
	for _, r := range requests {
		byID[r.ID] = r
	}

	optimizerReasons := make(map[string]string)
	proposed := make(map[Key]*proposedKey)
	if proposal != nil {
		for _, u := range proposal.Unassigned {
			if _, seen := optimizerReasons[u.RequestID]; !seen && u.Reason != "" {
				optimizerReasons[u.RequestID] = u.Reason
			}
		}
		for _, trip := range proposal.Trips {
			key := Key{RouteID: trip.RouteID, TimeSlotID: trip.TimeSlotID}
			pk, ok := proposed[key]
			if !ok {
				pk = &proposedKey{
					capacity:   trip.VehicleCapacity,
					rationale:  trip.Rationale,
					confidence: trip.Confidence,
					members:    make(map[string]bool),
				}
				proposed[key] = pk
			}
			for _, id := range trip.MemberIDs {
				// Unknown ids and members filed under the wrong key are dropped.
				if r, ok := byID[id]; ok && KeyOf(r) == key {
					pk.members[id] = true
				}
			}
		}
	}

	reasonFor := func(id, fallback string) string {
		if reason, ok := optimizerReasons[id]; ok {
			return reason
		}
		return fallback
	}

	var plan Plan
	for _, group := range GroupByKey(requests) {
		recurring, oneOff := SplitByPriority(group.Requests)

		pk, ok := proposed[group.Key]
		if !ok {
			plan.unassign(ReasonNoTripProposed, recurring...)
			if len(recurring) > 0 {
				plan.Anomalies = append(plan.Anomalies, Anomaly{
					Key:     group.Key,
					Kind:    AnomalyMissingTrip,
					Message: fmt.Sprintf("optimizer proposed no trip for %d recurring rider(s)", len(recurring)),
				})
			}
			for _, r := range oneOff {
				plan.unassign(reasonFor(r.ID, ReasonNoTripProposed), r)
			}
			continue
		}

		added := 0
		for _, r := range recurring {
			if !pk.members[r.ID] {
				added++
			}
		}

		capacity := policy.Tiers.Normalize(pk.capacity)
		needed, overflow := policy.Tiers.Select(len(recurring))
		if needed > capacity {
			capacity = needed
		}
		if overflow {
			plan.Anomalies = append(plan.Anomalies, overflowAnomaly(group.Key, len(recurring), capacity))
		}

		remaining := max(0, capacity-len(recurring))
		accepted := make([]domain.UnifiedRequest, 0, remaining)
		for _, r := range oneOff {
			switch {
			case !pk.members[r.ID]:
				plan.unassign(reasonFor(r.ID, ReasonNotSelected), r)
			case len(accepted) < remaining:
				accepted = append(accepted, r)
			default:
				plan.unassign(ReasonCapacityFullRepair, r)
			}
		}

		members := make([]domain.UnifiedRequest, 0, len(recurring)+len(accepted))
		members = append(members, recurring...)
		members = append(members, accepted...)
		SortBySequence(members)

		plan.Trips = append(plan.Trips, CandidateTrip{
			Key:            group.Key,
			Members:        members,
			Capacity:       capacity,
			Provenance:     domain.ProvenanceOptimizer,
			Rationale:      pk.rationale,
			Confidence:     pk.confidence,
			AddedRecurring: added,
		})
	}

	return plan
}

func overflowAnomaly(key Key, recurring, capacity int) Anomaly {
	return Anomaly{
		Key:     key,
		Kind:    AnomalyCapacityOverflow,
		Message: fmt.Sprintf("%d recurring riders exceed the largest vehicle (%d seats)", recurring, capacity),
	}
}
