package domain

// BoardingPointType distinguishes pickup points from drop-off points.
type BoardingPointType string

const (
	BoardingPointPickup  BoardingPointType = "pickup"
	BoardingPointDropOff BoardingPointType = "drop_off"
)

// Route is a fixed shuttle line between two endpoints.
type Route struct {
	ID           string
	Name         string
	Origin       string
	Destination  string
	PricePerSeat float64
	Active       bool
}

// TimeSlot is a departure time on a route.
type TimeSlot struct {
	ID            string
	RouteID       string
	DepartureTime string // HH:MM in the service time zone
	Active        bool
}

// BoardingPoint is a stop on a route. SequenceOrder defines the pickup
// and drop-off ordering along the route.
type BoardingPoint struct {
	ID            string
	RouteID       string
	Name          string
	SequenceOrder int
	Type          BoardingPointType
}
