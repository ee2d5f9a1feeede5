// Package scheduler triggers the nightly assignment run.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/domain"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/logging"
)

// Runner is the scheduled entry point of the assignment engine.
type Runner interface {
	RunScheduled(ctx context.Context) (*domain.RunSummary, error)
}

// Scheduler fires Runner on a cron expression evaluated in a fixed zone.
type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	runner Runner
	logger *slog.Logger
}

// New parses spec (standard five fields or a descriptor such as @daily)
// and registers the run.
func New(spec string, loc *time.Location, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	cronLogger := slogAdapter{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	s := &Scheduler{
		cron:   c,
		runner: runner,
		logger: logger,
	}

	entry, err := c.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = entry
	return s, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	logging.LogOperation(s.logger, "assignment scheduler started", slog.Time("next_run", s.Next()))
}

// Next returns the next fire time, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Stop stops firing and waits for an in-flight run until ctx expires. A run
// is never interrupted; on timeout it keeps going until the process exits.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) tick() {
	summary, err := s.runner.RunScheduled(context.Background())
	if err != nil {
		logging.LogError(s.logger, "scheduled assignment run failed", err)
		return
	}
	logging.LogOperation(s.logger, "scheduled assignment run done",
		slog.String("date", summary.Date),
		slog.String("outcome", string(summary.Outcome)),
		slog.Int("trips_created", summary.TripsCreated))
}

// slogAdapter satisfies cron.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error("cron: "+msg, append([]any{slog.String("error", err.Error())}, keysAndValues...)...)
}
