package assignment

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

func TestApplyQuorum_DiscardsSmallTrips(t *testing.T) {
	input := bucket("R", "T", 1, 1)
	proposal := &domain.TripProposal{
		Trips: []domain.ProposedTrip{proposalFor("R", "T", 4, ids(input)...)},
	}

	plan := ApplyQuorum(Repair(proposal, input, DefaultPolicy()), DefaultQuorum)

	assert.Empty(t, plan.Trips)
	assert.Equal(t, 1, plan.QuorumRejected)
	require.Len(t, plan.Unassigned, 2)
	for _, u := range plan.Unassigned {
		assert.Equal(t, ReasonInsufficientPassengers, u.Reason)
	}
	requireConservation(t, input, plan)
}

// randomDemand spreads requests over a handful of keys, with a random
// proposal that drops, misfiles and invents members.
func randomDemand(rng *rand.Rand) ([]domain.UnifiedRequest, *domain.TripProposal) {
	var input []domain.UnifiedRequest
	proposal := &domain.TripProposal{}

	for k := 0; k < 6; k++ {
		route := fmt.Sprintf("R%d", k%3)
		slot := fmt.Sprintf("T%d", k)
		var members []string
		recurringCount, oneOffCount := rng.Intn(12), rng.Intn(8)
		for i := 0; i < recurringCount; i++ {
			r := recurringReq(fmt.Sprintf("%d-r%d", k, i), route, slot, rng.Intn(5))
			input = append(input, r)
			if rng.Intn(4) > 0 {
				members = append(members, r.ID)
			}
		}
		for i := 0; i < oneOffCount; i++ {
			o := oneOffReq(fmt.Sprintf("%d-o%d", k, i), route, slot, rng.Intn(5))
			input = append(input, o)
			if rng.Intn(3) > 0 {
				members = append(members, o.ID)
			}
		}
		if rng.Intn(5) == 0 {
			members = append(members, "ghost")
		}
		if len(members) > 0 && rng.Intn(6) > 0 {
			tiers := []int{1, 4, 7, 10, 14, 32, 40}
			proposal.Trips = append(proposal.Trips, proposalFor(route, slot, tiers[rng.Intn(len(tiers))], members...))
		}
	}
	return input, proposal
}

func TestInvariants_HoldOnBothPaths(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	policy := DefaultPolicy()

	for iteration := 0; iteration < 200; iteration++ {
		input, proposal := randomDemand(rng)

		recurringByKey := make(map[Key][]string)
		for _, r := range input {
			if r.IsRecurring() {
				recurringByKey[KeyOf(r)] = append(recurringByKey[KeyOf(r)], r.ID)
			}
		}

		plans := map[string]Plan{
			"repair":   ApplyQuorum(Repair(proposal, input, policy), policy.Quorum),
			"fallback": ApplyQuorum(Fallback(input, policy), policy.Quorum),
		}
		for name, plan := range plans {
			requireConservation(t, input, plan)
			requirePickupOrder(t, plan)

			for _, trip := range plan.Trips {
				assert.GreaterOrEqual(t, len(trip.Members), policy.Quorum, "%s: quorum", name)
				assert.ElementsMatch(t, recurringByKey[trip.Key], recurringIDs(trip), "%s: priority on %s", name, trip.Key)

				needed, overflow := policy.Tiers.Select(trip.RecurringCount())
				assert.GreaterOrEqual(t, trip.Capacity, needed, "%s: capacity", name)
				if !overflow {
					assert.LessOrEqual(t, len(trip.Members), trip.Capacity, "%s: seats", name)
				}
				if name == "fallback" {
					assert.Equal(t, needed, trip.Capacity, "fallback picks the smallest tier")
				}
			}
		}
	}
}

func recurringIDs(trip CandidateTrip) []string {
	var out []string
	for _, m := range trip.Members {
		if m.IsRecurring() {
			out = append(out, m.ID)
		}
	}
	return out
}
