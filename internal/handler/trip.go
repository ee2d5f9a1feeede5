package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/service"
)

// TripLister lists generated trips.
type TripLister interface {
	ListByDate(ctx context.Context, date time.Time) ([]service.TripWithAssignments, error)
}

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	trips  TripLister
	parser interface {
		ParseDate(value string) (time.Time, error)
	}
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips TripLister, runner AssignmentRunner) *TripHandler {
	return &TripHandler{trips: trips, parser: runner}
}

// AssignmentResponse is one passenger on a trip.
type AssignmentResponse struct {
	RequestID      string `json:"request_id"`
	SourceKind     string `json:"source_kind"`
	PickupSequence int    `json:"pickup_sequence"`
}

// TripResponse is the HTTP response for a trip.
type TripResponse struct {
	ID              string               `json:"id"`
	ReferenceCode   string               `json:"reference_code"`
	RouteID         string               `json:"route_id"`
	TimeSlotID      string               `json:"time_slot_id"`
	ServiceDate     string               `json:"service_date"`
	VehicleCapacity int                  `json:"vehicle_capacity"`
	Status          string               `json:"status"`
	Provenance      string               `json:"provenance"`
	Confidence      float64              `json:"confidence"`
	Rationale       string               `json:"rationale,omitempty"`
	Passengers      []AssignmentResponse `json:"passengers"`
}

// GetByDate handles GET /v1/trips?date=YYYY-MM-DD
func (h *TripHandler) GetByDate(c *gin.Context) {
	date, err := h.parser.ParseDate(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	trips, err := h.trips.ListByDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		passengers := make([]AssignmentResponse, 0, len(t.Assignments))
		for _, a := range t.Assignments {
			passengers = append(passengers, AssignmentResponse{
				RequestID:      a.RequestID,
				SourceKind:     string(a.SourceKind),
				PickupSequence: a.PickupSequence,
			})
		}
		response = append(response, TripResponse{
			ID:              t.Trip.ID,
			ReferenceCode:   t.Trip.ReferenceCode,
			RouteID:         t.Trip.RouteID,
			TimeSlotID:      t.Trip.TimeSlotID,
			ServiceDate:     t.Trip.ServiceDate.Format("2006-01-02"),
			VehicleCapacity: t.Trip.VehicleCapacity,
			Status:          string(t.Trip.Status),
			Provenance:      string(t.Trip.Provenance),
			Confidence:      t.Trip.Confidence,
			Rationale:       t.Trip.Rationale,
			Passengers:      passengers,
		})
	}

	respondJSON(c, http.StatusOK, response)
}
