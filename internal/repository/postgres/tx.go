package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/logging"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository"
)

// Transactor runs trip writes inside a database transaction.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx begins a transaction, hands fn repositories bound to it and
// commits when fn succeeds.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, w repository.TripWriters) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			logging.SafeRollback(tx, logging.FromContext(ctx).With(slog.String("component", "transactor")), "trip_group")
		}
	}()

	writers := repository.TripWriters{
		Trips:       NewTripRepositoryWithTx(tx),
		Assignments: NewAssignmentRepositoryWithTx(tx),
		ServiceDays: NewServiceDayRepositoryWithTx(tx),
	}

	if err = fn(ctx, writers); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ensure Transactor implements repository.Transactor.
var _ repository.Transactor = (*Transactor)(nil)
