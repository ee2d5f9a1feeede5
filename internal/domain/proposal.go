package domain

// ProposedTrip is one candidate trip. Capacity is the vehicle tier in seats.
type ProposedTrip struct {
	RouteID         string   `json:"route_id" validate:"required"`
	TimeSlotID      string   `json:"time_slot_id" validate:"required"`
	MemberIDs       []string `json:"member_ids" validate:"required,min=1,dive,required"`
	VehicleCapacity int      `json:"vehicle_capacity" validate:"gt=0"`
	PickupSequence  []string `json:"pickup_sequence" validate:"dive,required"`
	Rationale       string   `json:"rationale"`
	Confidence      float64  `json:"confidence" validate:"gte=0,lte=1"`
}

// UnassignedEntry explains why a request did not become part of a trip.
type UnassignedEntry struct {
	RequestID string `json:"request_id" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// TripProposal is a grouping of requests into trips plus an explicit
// unassigned list. Produced by the advisory optimizer or the fallback.
type TripProposal struct {
	Trips      []ProposedTrip    `json:"trips" validate:"dive"`
	Unassigned []UnassignedEntry `json:"unassigned" validate:"dive"`
}
