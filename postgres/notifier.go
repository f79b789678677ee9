// Package postgres delivers PostgreSQL LISTEN/NOTIFY notifications to a
// stoker worker as wake-ups, so database writers can wake a worker in
// another process with a plain NOTIFY in their transaction.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Waker is the part of a worker the notifier needs. *stoker.Worker
// implements it.
type Waker interface {
	Wakeup()
}

// ListenConfig carries optional settings for a Notifier.
type ListenConfig struct {
	// OnNotification runs for each received notification, before the
	// wake-up is delivered. Hosts typically use it to set their work
	// indicator so the woken worker's check finds the work. Optional.
	OnNotification func(payload string)

	// Logger receives connection errors, which have no caller to return
	// them to. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Notifier holds a dedicated connection in LISTEN mode and wakes a
// worker for every notification on its channel. NOTIFY delivery is
// not queued across disconnects; the worker's timed interval remains
// the backstop for missed notifications.
type Notifier struct {
	conn           *pgx.Conn
	channel        string
	waker          Waker
	onNotification func(payload string)
	logger         *slog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Listen connects to dsn, issues LISTEN on channel, and wakes w for every
// notification until Close is called.
func Listen(ctx context.Context, dsn, channel string, w Waker) (*Notifier, error) {
	return ListenWithConfig(ctx, dsn, channel, w, ListenConfig{})
}

// ListenWithConfig is Listen with explicit configuration.
func ListenWithConfig(ctx context.Context, dsn, channel string, w Waker, cfg ListenConfig) (*Notifier, error) {
	if w == nil {
		panic("stoker/postgres: nil waker")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("stoker/postgres: connecting: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("stoker/postgres: listening on %q: %w", channel, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		conn:           conn,
		channel:        channel,
		waker:          w,
		onNotification: cfg.OnNotification,
		logger:         logger,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go n.loop(loopCtx)

	return n, nil
}

func (n *Notifier) loop(ctx context.Context) {
	defer close(n.done)

	for {
		notification, err := n.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Error("notify_wait_failed",
				slog.String("channel", n.channel),
				slog.Any("error", err),
			)
			return
		}

		if n.onNotification != nil {
			n.onNotification(notification.Payload)
		}
		n.waker.Wakeup()
	}
}

// Close stops the delivery goroutine and closes the connection. No
// wake-ups are delivered after Close returns. Close is idempotent.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		n.cancel()
		<-n.done

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = n.conn.Close(ctx)
	})
}
