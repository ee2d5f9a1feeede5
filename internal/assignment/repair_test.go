package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

func proposalFor(route, slot string, capacity int, members ...string) domain.ProposedTrip {
	return domain.ProposedTrip{
		RouteID:         route,
		TimeSlotID:      slot,
		MemberIDs:       members,
		VehicleCapacity: capacity,
		Rationale:       "optimizer",
		Confidence:      0.8,
	}
}

func TestRepair_MatchesFallbackOnSimpleBucket(t *testing.T) {
	input := bucket("R", "T", 2, 1)
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{proposalFor("R", "T", 4, ids(input)...)},
	}

	repaired := ApplyQuorum(Repair(proposal, input, DefaultPolicy()), DefaultQuorum)
	fallback := ApplyQuorum(Fallback(input, DefaultPolicy()), DefaultQuorum)

	require.Len(t, repaired.Trips, 1)
	require.Len(t, fallback.Trips, 1)
	assert.Equal(t, fallback.Trips[0].Capacity, repaired.Trips[0].Capacity)
	assert.Equal(t, ids(fallback.Trips[0].Members), ids(repaired.Trips[0].Members))
	assert.Equal(t, domain.ProvenanceOptimizer, repaired.Trips[0].Provenance)
	assert.Equal(t, 0.8, repaired.Trips[0].Confidence)
}

func TestRepair_AddsMissingRecurringAndUpsizes(t *testing.T) {
	input := bucket("R", "T", 5, 0)
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{proposalFor("R", "T", 4, ids(input[:4])...)},
	}

	plan := Repair(proposal, input, DefaultPolicy())

	require.Len(t, plan.Trips, 1)
	trip := plan.Trips[0]
	assert.Equal(t, 5, trip.RecurringCount())
	assert.Equal(t, 7, trip.Capacity)
	assert.Equal(t, 1, trip.AddedRecurring)
	assert.Empty(t, plan.Unassigned)
	requireConservation(t, input, plan)
	requirePickupOrder(t, plan)
}

func TestRepair_OneOffDisplacedByRecurring(t *testing.T) {
	input := bucket("R", "T", 6, 3)
	// Optimizer only proposes 3 recurring + 3 one-off on a 7-seater.
	members := []string{"sub:R-T-r0", "sub:R-T-r1", "sub:R-T-r2", "ind:R-T-o0", "ind:R-T-o1", "ind:R-T-o2"}
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{proposalFor("R", "T", 7, members...)},
	}

	plan := Repair(proposal, input, DefaultPolicy())

	require.Len(t, plan.Trips, 1)
	trip := plan.Trips[0]
	assert.Equal(t, 7, trip.Capacity)
	assert.Equal(t, 6, trip.RecurringCount())
	assert.Len(t, trip.Members, 7)
	assert.Contains(t, ids(trip.Members), "ind:R-T-o2")
	assert.Equal(t, ReasonCapacityFullRepair, reasonOf(plan, "ind:R-T-o1"))
	assert.Equal(t, ReasonCapacityFullRepair, reasonOf(plan, "ind:R-T-o0"))
	requireConservation(t, input, plan)
	requirePickupOrder(t, plan)
}

func TestRepair_KeepsLargerProposedVehicle(t *testing.T) {
	input := bucket("R", "T", 2, 5)
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{proposalFor("R", "T", 9, ids(input)...)},
	}

	plan := Repair(proposal, input, DefaultPolicy())

	require.Len(t, plan.Trips, 1)
	assert.Equal(t, 10, plan.Trips[0].Capacity)
	assert.Len(t, plan.Trips[0].Members, 7)
}

func TestRepair_MissingKeyIsAnomaly(t *testing.T) {
	input := append(bucket("R1", "T", 3, 0), bucket("R2", "T", 2, 1)...)
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{proposalFor("R1", "T", 4, ids(input[:3])...)},
		Unassigned: []domain.UnassignedEntry{
			{RequestID: "ind:R2-T-o0", Reason: "route closed"},
		},
	}

	plan := Repair(proposal, input, DefaultPolicy())

	require.Len(t, plan.Trips, 1)
	require.Len(t, plan.Anomalies, 1)
	assert.Equal(t, AnomalyMissingTrip, plan.Anomalies[0].Kind)
	assert.Equal(t, Key{"R2", "T"}, plan.Anomalies[0].Key)
	assert.Equal(t, ReasonNoTripProposed, reasonOf(plan, "sub:R2-T-r0"))
	assert.Equal(t, ReasonNoTripProposed, reasonOf(plan, "sub:R2-T-r1"))
	assert.Equal(t, "route closed", reasonOf(plan, "ind:R2-T-o0"))
	requireConservation(t, input, plan)
}

func TestRepair_IgnoresUntrustedMembers(t *testing.T) {
	input := append(bucket("R1", "T", 2, 2), bucket("R2", "T", 3, 0)...)
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{
			// Wrong-key member, unknown id and a duplicate.
			proposalFor("R1", "T", 4, "sub:R1-T-r0", "sub:R2-T-r0", "ghost", "ind:R1-T-o0", "ind:R1-T-o0"),
			// Second trip for the same key is merged, not duplicated.
			proposalFor("R1", "T", 14, "ind:R1-T-o1"),
			proposalFor("R2", "T", 4, "sub:R2-T-r1", "sub:R2-T-r2"),
		},
	}

	plan := Repair(proposal, input, DefaultPolicy())

	require.Len(t, plan.Trips, 2)
	r1 := plan.Trips[0]
	assert.Equal(t, Key{"R1", "T"}, r1.Key)
	assert.Equal(t, 4, r1.Capacity)
	assert.Len(t, r1.Members, 4)

	r2 := plan.Trips[1]
	assert.Equal(t, 3, r2.RecurringCount())
	assert.Equal(t, 1, r2.AddedRecurring)
	requireConservation(t, input, plan)
}

func TestRepair_NilProposalUnassignsEverything(t *testing.T) {
	input := bucket("R", "T", 3, 1)

	plan := Repair(nil, input, DefaultPolicy())

	assert.Empty(t, plan.Trips)
	assert.Len(t, plan.Unassigned, 4)
	assert.Len(t, plan.Anomalies, 1)
}

func TestRepair_Idempotent(t *testing.T) {
	input := append(bucket("R1", "T", 4, 4), bucket("R2", "T", 1, 6)...)
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{
			proposalFor("R1", "T", 4, ids(input[:6])...),
			proposalFor("R2", "T", 7, ids(input[8:])...),
		},
	}

	first := Repair(proposal, input, DefaultPolicy())
	second := Repair(proposal, input, DefaultPolicy())

	assert.Equal(t, first.Proposal(), second.Proposal())
}
