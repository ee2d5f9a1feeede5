package assignment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

func recurringReq(id, route, slot string, seq int) domain.UnifiedRequest {
	return domain.UnifiedRequest{
		ID:            domain.RecurringIDPrefix + id,
		SourceID:      id,
		SourceKind:    domain.SourceRecurring,
		Priority:      domain.PriorityMustServe,
		RouteID:       route,
		TimeSlotID:    slot,
		SequenceOrder: seq,
	}
}

func oneOffReq(id, route, slot string, seq int) domain.UnifiedRequest {
	return domain.UnifiedRequest{
		ID:            domain.OneOffIDPrefix + id,
		SourceID:      id,
		SourceKind:    domain.SourceOneOff,
		Priority:      domain.PriorityFillRemaining,
		RouteID:       route,
		TimeSlotID:    slot,
		SequenceOrder: seq,
	}
}

// bucket builds n recurring and m one-off requests on one key, with
// sequence orders interleaved so sorting is exercised.
func bucket(route, slot string, n, m int) []domain.UnifiedRequest {
	var out []domain.UnifiedRequest
	for i := 0; i < n; i++ {
		out = append(out, recurringReq(fmt.Sprintf("%s-%s-r%d", route, slot, i), route, slot, (n-i)*2))
	}
	for i := 0; i < m; i++ {
		out = append(out, oneOffReq(fmt.Sprintf("%s-%s-o%d", route, slot, i), route, slot, (m-i)*2+1))
	}
	return out
}

func ids(requests []domain.UnifiedRequest) []string {
	out := make([]string, len(requests))
	for i, r := range requests {
		out[i] = r.ID
	}
	return out
}

// requireConservation checks that every input request ends up exactly once,
// either on a trip or in the unassigned list.
func requireConservation(t *testing.T, input []domain.UnifiedRequest, plan Plan) {
	t.Helper()

	seen := make(map[string]int)
	for _, trip := range plan.Trips {
		for _, m := range trip.Members {
			require.Equal(t, trip.Key, KeyOf(m), "member %s filed under wrong key", m.ID)
			seen[m.ID]++
		}
	}
	for _, u := range plan.Unassigned {
		seen[u.Request.ID]++
	}

	require.Len(t, seen, len(input))
	for _, r := range input {
		require.Equal(t, 1, seen[r.ID], "request %s seen %d times", r.ID, seen[r.ID])
	}
}

// requirePickupOrder checks sequence orders are non-decreasing on every trip.
func requirePickupOrder(t *testing.T, plan Plan) {
	t.Helper()
	for _, trip := range plan.Trips {
		for i := 1; i < len(trip.Members); i++ {
			require.LessOrEqual(t, trip.Members[i-1].SequenceOrder, trip.Members[i].SequenceOrder,
				"trip %s out of pickup order at %d", trip.Key, i)
		}
	}
}

func reasonOf(plan Plan, id string) string {
	for _, u := range plan.Unassigned {
		if u.Request.ID == id {
			return u.Reason
		}
	}
	return ""
}
