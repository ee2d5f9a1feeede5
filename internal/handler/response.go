package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInvalidDate):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrAlreadyRunning),
		errors.Is(err, service.ErrTripsAlreadyExist),
		errors.Is(err, repository.ErrDuplicateTrip):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// outcomeError maps rejecting run outcomes to their sentinel error.
func outcomeError(outcome domain.RunOutcome) error {
	switch outcome {
	case domain.RunRejectedRunning:
		return service.ErrAlreadyRunning
	case domain.RunRejectedDuplicate:
		return service.ErrTripsAlreadyExist
	default:
		return nil
	}
}

// summaryStatus picks the HTTP status for a run summary. The summary is the
// body in every case so callers can read errors[].
func summaryStatus(summary *domain.RunSummary, runErr error) int {
	if runErr != nil {
		return http.StatusInternalServerError
	}
	if err := outcomeError(summary.Outcome); err != nil {
		return mapErrorToHTTPStatus(err)
	}
	return http.StatusOK
}
