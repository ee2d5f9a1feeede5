package assignment

// ApplyQuorum discards every candidate trip with fewer than quorum members.
// All members of a discarded trip become unassigned. It runs on both paths,
// after repair or fallback.
func ApplyQuorum(plan Plan, quorum int) Plan {
	kept := make([]CandidateTrip, 0, len(plan.Trips))
	for _, trip := range plan.Trips {
		if len(trip.Members) < quorum {
			plan.unassign(ReasonInsufficientPassengers, trip.Members...)
			plan.QuorumRejected++
			continue
		}
		kept = append(kept, trip)
	}
	plan.Trips = kept
	return plan
}
