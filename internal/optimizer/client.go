package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

const (
	serviceDateLayout = "2006-01-02"
	maxResponseBytes  = 4 << 20
)

// proposeRequest is the wire body sent to the optimizer.
type proposeRequest struct {
	ServiceDate string        `json:"service_date"`
	Requests    []wireRequest `json:"requests"`
}

type wireRequest struct {
	ID              string `json:"id"`
	Priority        int    `json:"priority"`
	RouteID         string `json:"route_id"`
	TimeSlotID      string `json:"time_slot_id"`
	BoardingPointID string `json:"boarding_point_id"`
	DropOffPointID  string `json:"drop_off_point_id"`
	SequenceOrder   int    `json:"sequence_order"`
}

// HTTPClient calls an optimizer service over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
}

// NewHTTPClient creates an optimizer client. The transport is wrapped for
// New Relic external segments; it is a no-op without a transaction in the
// request context.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Transport: newrelic.NewRoundTripper(http.DefaultTransport)},
		endpoint:   endpoint,
		timeout:    timeout,
	}
}

// Propose sends the full request set and returns the validated proposal.
// Any failure is reported as ErrUnavailable.
func (c *HTTPClient) Propose(ctx context.Context, requests []domain.UnifiedRequest, date time.Time) (*domain.TripProposal, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	proposal, err := c.propose(ctx, requests, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return proposal, nil
}

func (c *HTTPClient) propose(ctx context.Context, requests []domain.UnifiedRequest, date time.Time) (*domain.TripProposal, error) {
	body := proposeRequest{
		ServiceDate: date.Format(serviceDateLayout),
		Requests:    make([]wireRequest, 0, len(requests)),
	}
	for _, r := range requests {
		body.Requests = append(body.Requests, wireRequest{
			ID:              r.ID,
			Priority:        int(r.Priority),
			RouteID:         r.RouteID,
			TimeSlotID:      r.TimeSlotID,
			BoardingPointID: r.BoardingPointID,
			DropOffPointID:  r.DropOffPointID,
			SequenceOrder:   r.SequenceOrder,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var proposal domain.TripProposal
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&proposal); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}

	if err := Validate(&proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}
