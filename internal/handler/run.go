package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/service"
)

// AssignmentRunner is the part of service.AssignmentService the handler uses.
type AssignmentRunner interface {
	ParseDate(value string) (time.Time, error)
	RunForDate(ctx context.Context, date time.Time) (*domain.RunSummary, error)
}

// SummaryReader returns cached run summaries.
type SummaryReader interface {
	GetRunSummary(ctx context.Context, date string) (*domain.RunSummary, error)
}

// RunHandler handles HTTP requests for assignment runs.
type RunHandler struct {
	runner    AssignmentRunner
	summaries SummaryReader
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runner AssignmentRunner, summaries SummaryReader) *RunHandler {
	return &RunHandler{runner: runner, summaries: summaries}
}

// TriggerRunRequest is the HTTP request body for a manual run.
type TriggerRunRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// TriggerRun handles POST /v1/assignment-runs
func (h *RunHandler) TriggerRun(c *gin.Context) {
	var req TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, 400, ErrorResponse{Error: "date is required in YYYY-MM-DD format"})
		return
	}

	date, err := h.runner.ParseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	// The run outlives a dropped client connection.
	summary, err := h.runner.RunForDate(context.WithoutCancel(c.Request.Context()), date)
	if summary == nil {
		if err == nil {
			err = errors.New("run returned no summary")
		}
		respondError(c, err)
		return
	}

	respondJSON(c, summaryStatus(summary, err), summary)
}

// GetRun handles GET /v1/assignment-runs/:date
func (h *RunHandler) GetRun(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(c, service.ErrInvalidDate)
		return
	}

	summary, err := h.summaries.GetRunSummary(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, 200, summary)
}
