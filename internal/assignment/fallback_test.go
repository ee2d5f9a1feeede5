package assignment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

func TestFallback_SmallestVehicleForQuorumTrip(t *testing.T) {
	input := bucket("R", "T", 2, 1)

	plan := ApplyQuorum(Fallback(input, DefaultPolicy()), DefaultQuorum)

	require.Len(t, plan.Trips, 1)
	trip := plan.Trips[0]
	assert.Equal(t, 4, trip.Capacity)
	assert.Len(t, trip.Members, 3)
	assert.Equal(t, domain.ProvenanceFallback, trip.Provenance)
	assert.Empty(t, plan.Unassigned)
	requireConservation(t, input, plan)
	requirePickupOrder(t, plan)
}

func TestFallback_RejectsBucketBelowQuorum(t *testing.T) {
	input := bucket("R", "T", 1, 1)

	plan := Fallback(input, DefaultPolicy())

	assert.Empty(t, plan.Trips)
	assert.Equal(t, 1, plan.QuorumRejected)
	require.Len(t, plan.Unassigned, 2)
	for _, u := range plan.Unassigned {
		assert.Equal(t, ReasonInsufficientPassengers, u.Reason)
	}
	requireConservation(t, input, plan)
}

func TestFallback_UpsizesForRecurringAndTrimsOneOff(t *testing.T) {
	input := bucket("R", "T", 6, 3)

	plan := Fallback(input, DefaultPolicy())

	require.Len(t, plan.Trips, 1)
	trip := plan.Trips[0]
	assert.Equal(t, 7, trip.Capacity)
	assert.Equal(t, 6, trip.RecurringCount())
	assert.Len(t, trip.Members, 7)

	// The one-off with the earliest boarding point wins the last seat.
	assert.Contains(t, ids(trip.Members), "ind:R-T-o2")
	require.Len(t, plan.Unassigned, 2)
	assert.Equal(t, ReasonNoRemainingCapacity, reasonOf(plan, "ind:R-T-o1"))
	assert.Equal(t, ReasonNoRemainingCapacity, reasonOf(plan, "ind:R-T-o0"))
	requireConservation(t, input, plan)
	requirePickupOrder(t, plan)
}

func TestFallback_SecondQuorumStageRejectsAssignableShortfall(t *testing.T) {
	// Raw demand of 5 passes a quorum of 5, but with no recurring riders the
	// smallest vehicle only seats 4.
	policy := Policy{Tiers: DefaultTiers, Quorum: 5}
	input := bucket("R", "T", 0, 5)

	plan := Fallback(input, policy)

	assert.Empty(t, plan.Trips)
	assert.Equal(t, 1, plan.QuorumRejected)
	requireConservation(t, input, plan)

	below, noCapacity := 0, 0
	for _, u := range plan.Unassigned {
		switch u.Reason {
		case ReasonBelowThreshold:
			below++
		case ReasonNoRemainingCapacity:
			noCapacity++
		}
	}
	assert.Equal(t, 4, below)
	assert.Equal(t, 1, noCapacity)
}

func TestFallback_OverflowKeepsEveryRecurringRider(t *testing.T) {
	input := bucket("R", "T", 35, 2)

	plan := Fallback(input, DefaultPolicy())

	require.Len(t, plan.Trips, 1)
	assert.Equal(t, 32, plan.Trips[0].Capacity)
	assert.Equal(t, 35, plan.Trips[0].RecurringCount())
	require.Len(t, plan.Anomalies, 1)
	assert.Equal(t, AnomalyCapacityOverflow, plan.Anomalies[0].Kind)
	assert.Len(t, plan.Unassigned, 2)
	requireConservation(t, input, plan)
}

func TestFallback_Deterministic(t *testing.T) {
	var input []domain.UnifiedRequest
	input = append(input, bucket("R2", "T1", 3, 4)...)
	input = append(input, bucket("R1", "T1", 6, 3)...)
	input = append(input, bucket("R1", "T2", 1, 1)...)
	input = append(input, bucket("R3", "T9", 12, 6)...)

	first, err := json.Marshal(Fallback(input, DefaultPolicy()).Proposal())
	require.NoError(t, err)
	second, err := json.Marshal(Fallback(input, DefaultPolicy()).Proposal())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
