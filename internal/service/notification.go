package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationDriverAssignmentNeeded NotificationType = "DRIVER_ASSIGNMENT_NEEDED"
	NotificationTripNotGenerated       NotificationType = "TRIP_NOT_GENERATED"
	NotificationRunReport              NotificationType = "ASSIGNMENT_RUN_REPORT"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// Notifier delivers the side effects of a run. Failures never change run
// outcomes; callers log and move on.
type Notifier interface {
	NotifyDriverAssignmentNeeded(ctx context.Context, trip *domain.VehicleTrip, passengers int) error
	NotifyTripNotGenerated(ctx context.Context, riderID string, date time.Time, reason string) error
	NotifyRunReport(ctx context.Context, summary *domain.RunSummary) error
}

// Sender delivers one notification over some channel.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// NotificationService builds run notifications and hands them to a Sender.
type NotificationService struct {
	sender          Sender
	adminRecipients []string
	staffRecipients []string
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sender Sender, adminRecipients, staffRecipients []string) *NotificationService {
	return &NotificationService{
		sender:          sender,
		adminRecipients: adminRecipients,
		staffRecipients: staffRecipients,
	}
}

// NotifyDriverAssignmentNeeded tells operations staff a new trip needs a driver.
func (s *NotificationService) NotifyDriverAssignmentNeeded(ctx context.Context, trip *domain.VehicleTrip, passengers int) error {
	for _, recipient := range s.staffRecipients {
		err := s.sender.Send(ctx, Notification{
			Type:        NotificationDriverAssignmentNeeded,
			RecipientID: recipient,
			Title:       "Driver Assignment Needed",
			Message: fmt.Sprintf("Trip %s on %s needs a driver: %d passengers, %d-seat vehicle",
				trip.ReferenceCode, trip.ServiceDate.Format("2006-01-02"), passengers, trip.VehicleCapacity),
			Data: map[string]any{
				"trip_id":          trip.ID,
				"reference_code":   trip.ReferenceCode,
				"route_id":         trip.RouteID,
				"time_slot_id":     trip.TimeSlotID,
				"vehicle_capacity": trip.VehicleCapacity,
				"passengers":       passengers,
			},
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// NotifyTripNotGenerated tells a recurring rider there is no trip for the date.
func (s *NotificationService) NotifyTripNotGenerated(ctx context.Context, riderID string, date time.Time, reason string) error {
	if riderID == "" {
		return nil
	}
	return s.sender.Send(ctx, Notification{
		Type:        NotificationTripNotGenerated,
		RecipientID: riderID,
		Title:       "No Trip Scheduled",
		Message:     fmt.Sprintf("No trip was scheduled for you on %s: %s", date.Format("Mon, 02 Jan"), reason),
		Data: map[string]any{
			"service_date": date.Format("2006-01-02"),
			"reason":       reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRunReport sends the run summary to every admin.
func (s *NotificationService) NotifyRunReport(ctx context.Context, summary *domain.RunSummary) error {
	message := formatReport(summary)
	for _, recipient := range s.adminRecipients {
		err := s.sender.Send(ctx, Notification{
			Type:        NotificationRunReport,
			RecipientID: recipient,
			Title:       fmt.Sprintf("Trip assignment %s: %s", summary.Date, summary.Outcome),
			Message:     message,
			Data: map[string]any{
				"date":                  summary.Date,
				"outcome":               summary.Outcome,
				"trips_created":         summary.TripsCreated,
				"quorum_rejected_trips": summary.QuorumRejectedTrips,
				"passengers_assigned":   summary.PassengersAssigned,
				"unassigned":            len(summary.Unassigned),
				"errors":                len(summary.Errors),
			},
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func formatReport(summary *domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) via %s, provenance %s\n", summary.Date, summary.DayOfWeek, summary.Trigger, summary.Provenance)
	fmt.Fprintf(&b, "trips created: %d, quorum rejected: %d, passengers assigned: %d\n",
		summary.TripsCreated, summary.QuorumRejectedTrips, summary.PassengersAssigned)
	if summary.IsWeekend {
		b.WriteString("skipped: weekend\n")
	}
	if summary.IsBlackout {
		b.WriteString("skipped: blackout date\n")
	}
	if len(summary.Unassigned) > 0 {
		fmt.Fprintf(&b, "unassigned (%d):\n", len(summary.Unassigned))
		for _, u := range summary.Unassigned {
			fmt.Fprintf(&b, "  - %s [%s] %s/%s: %s\n", u.RequestID, u.SourceKind, u.RouteID, u.TimeSlotID, u.Reason)
		}
	}
	if len(summary.Errors) > 0 {
		fmt.Fprintf(&b, "errors (%d):\n", len(summary.Errors))
		for _, e := range summary.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return b.String()
}

// LogSender writes notifications to the structured log. It is the sender
// used until a delivery channel is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification",
		slog.String("type", string(n.Type)),
		slog.String("recipient", n.RecipientID),
		slog.String("title", n.Title),
		slog.String("message", n.Message))
	return nil
}

// Ensure implementations satisfy their interfaces.
var (
	_ Notifier = (*NotificationService)(nil)
	_ Sender   = (*LogSender)(nil)
)
