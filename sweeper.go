package stoker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/stoker/internal/sweep"
	"github.com/petrijr/stoker/pkg/api"
)

// SweepConfig configures a SQLite retention sweeper.
type SweepConfig struct {
	// Table is the table to sweep. Required.
	Table string

	// TimeColumn is the INTEGER column holding each row's creation time
	// as Unix nanoseconds. Required; an index on it keeps the sweeper's
	// check cheap.
	TimeColumn string

	// TTL is how long rows are retained. Required, positive.
	TTL time.Duration

	// BatchSize bounds how many rows one delete statement removes.
	// Defaults to 256.
	BatchSize int

	// Interval is the worker's self-wake interval, the backstop for
	// writes that were never followed by NotifyWrite. Defaults to one
	// minute.
	Interval time.Duration

	// Name identifies the sweeper's worker in logs and observer
	// callbacks. Defaults to "sweep:<table>".
	Name string

	// Observer receives the worker's lifecycle callbacks. Optional.
	Observer api.Observer

	// Logger is used for store errors encountered inside the worker
	// callbacks, which have no caller to return them to. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// Sweeper bundles a Worker with a SQLite retention job: rows older than
// the TTL are deleted in bounded batches. The worker wakes on its
// interval, or eagerly when the host calls NotifyWrite after inserting.
//
// The sweeper's check runs a single bounded EXISTS query; its work
// deletes batches until the table is clean or a cancel is pending.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:app.db?_journal=WAL")
//	s, err := stoker.NewSQLiteSweeper(db, stoker.SweepConfig{
//		Table:      "events",
//		TimeColumn: "created_at",
//		TTL:        30 * 24 * time.Hour,
//	})
//	...
//	s.NotifyWrite() // after inserting rows
//	...
//	s.Close()
type Sweeper struct {
	worker *Worker
	store  *sweep.Store

	ttl       time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewSQLiteSweeper validates the configuration and starts the sweep
// worker. The table and its timestamp index must already exist.
func NewSQLiteSweeper(db *sql.DB, cfg SweepConfig) (*Sweeper, error) {
	store, err := sweep.NewStore(db, cfg.Table, cfg.TimeColumn)
	if err != nil {
		return nil, err
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("stoker: sweeper requires a positive TTL, got %v", cfg.TTL)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 256
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	name := cfg.Name
	if name == "" {
		name = "sweep:" + cfg.Table
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sweeper{
		store:     store,
		ttl:       cfg.TTL,
		batchSize: batch,
		logger:    logger,
	}

	s.worker = NewWithConfig(s.checkExpired, s.deleteExpired, nil, Config{
		Name:     name,
		Interval: interval,
		Observer: cfg.Observer,
	})

	return s, nil
}

// checkExpired is the sweeper's CheckFunc. It runs under the worker's
// state lock, so it issues exactly one bounded query; store errors are
// logged and read as "no work", to be retried on the next wake.
func (s *Sweeper) checkExpired(_ any, h api.Handle) bool {
	expired, err := s.store.HasExpired(context.Background(), s.cutoff())
	if err != nil {
		s.logger.Error("sweep_check_failed",
			slog.String("worker", h.Name()),
			slog.Any("error", err),
		)
		return false
	}
	return expired
}

// deleteExpired is the sweeper's WorkFunc. It deletes batches until the
// table is clean, an error occurs, or a cancel is pending.
func (s *Sweeper) deleteExpired(_ any, h api.Handle) {
	for {
		n, err := s.store.DeleteExpired(context.Background(), s.cutoff(), s.batchSize)
		if err != nil {
			s.logger.Error("sweep_delete_failed",
				slog.String("worker", h.Name()),
				slog.Any("error", err),
			)
			return
		}
		if n == 0 {
			return
		}
		s.logger.Debug("sweep_deleted_batch",
			slog.String("worker", h.Name()),
			slog.Int64("rows", n),
		)
		if h.IsCancelled() {
			return
		}
	}
}

func (s *Sweeper) cutoff() time.Time {
	return time.Now().Add(-s.ttl)
}

// NotifyWrite wakes the sweeper after the host has inserted rows, so
// expired data is reclaimed without waiting for the interval.
func (s *Sweeper) NotifyWrite() {
	s.worker.Wakeup()
}

// Worker exposes the underlying worker handle, e.g. to Cancel and Resume
// the sweep around a bulk migration.
func (s *Sweeper) Worker() *Worker {
	return s.worker
}

// Close cancels the sweep worker, waits for it to exit, and destroys the
// handle. The Sweeper must not be used afterwards.
func (s *Sweeper) Close() {
	s.worker.Cancel()
	s.worker.Destroy()
}
