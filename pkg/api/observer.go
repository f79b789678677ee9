package api

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from a worker as it moves through its
// lifecycle.
//
// Implementations must be fast and non-blocking: several hooks fire while
// the worker holds its state lock, so a slow observer delays cancel and
// resume requests. Observers must never call back into the worker that is
// notifying them.
type Observer interface {
	// OnStart is called once per worker goroutine, when the loop begins
	// running (both on creation and on resume).
	OnStart(name string)

	// OnStop is called when the worker goroutine exits after observing a
	// cancel request.
	OnStop(name string)

	// OnCheck is called after each check callback invocation with its
	// result.
	OnCheck(name string, pending bool)

	// OnWorkStart is called before the work callback runs. No worker lock
	// is held.
	OnWorkStart(name string)

	// OnWorkCompleted is called after the work callback returns. No
	// worker lock is held.
	OnWorkCompleted(name string, d time.Duration)

	// OnSleep is called before the worker blocks waiting for a wake-up.
	// interval is the configured sleep interval; zero means the worker
	// waits indefinitely for an explicit wake-up.
	OnSleep(name string, interval time.Duration)

	// OnWake is called when the worker unblocks, whether due to an
	// explicit wake-up, an expired interval, or a spurious wake.
	OnWake(name string)

	// OnCancelRequested is called when a cancel request is accepted,
	// before the caller starts waiting for the worker to exit.
	OnCancelRequested(name string)

	// OnResume is called when a resume request respawns a stopped worker.
	// A resume that finds the worker already running does not fire it.
	OnResume(name string)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnStart(name string)                          {}
func (NoopObserver) OnStop(name string)                           {}
func (NoopObserver) OnCheck(name string, pending bool)            {}
func (NoopObserver) OnWorkStart(name string)                      {}
func (NoopObserver) OnWorkCompleted(name string, d time.Duration) {}
func (NoopObserver) OnSleep(name string, interval time.Duration)  {}
func (NoopObserver) OnWake(name string)                           {}
func (NoopObserver) OnCancelRequested(name string)                {}
func (NoopObserver) OnResume(name string)                         {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnStart(name string) {
	for _, o := range c.observers {
		o.OnStart(name)
	}
}

func (c *CompositeObserver) OnStop(name string) {
	for _, o := range c.observers {
		o.OnStop(name)
	}
}

func (c *CompositeObserver) OnCheck(name string, pending bool) {
	for _, o := range c.observers {
		o.OnCheck(name, pending)
	}
}

func (c *CompositeObserver) OnWorkStart(name string) {
	for _, o := range c.observers {
		o.OnWorkStart(name)
	}
}

func (c *CompositeObserver) OnWorkCompleted(name string, d time.Duration) {
	for _, o := range c.observers {
		o.OnWorkCompleted(name, d)
	}
}

func (c *CompositeObserver) OnSleep(name string, interval time.Duration) {
	for _, o := range c.observers {
		o.OnSleep(name, interval)
	}
}

func (c *CompositeObserver) OnWake(name string) {
	for _, o := range c.observers {
		o.OnWake(name)
	}
}

func (c *CompositeObserver) OnCancelRequested(name string) {
	for _, o := range c.observers {
		o.OnCancelRequested(name)
	}
}

func (c *CompositeObserver) OnResume(name string) {
	for _, o := range c.observers {
		o.OnResume(name)
	}
}

// LoggingObserver writes structured logs using log/slog.
//
// Per-iteration events (check, sleep, wake, work) are logged at Debug
// because they fire on every loop cycle; lifecycle transitions are logged
// at Info.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs worker lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnStart(name string) {
	o.Logger.Info("worker_start", slog.String("worker", name))
}

func (o *LoggingObserver) OnStop(name string) {
	o.Logger.Info("worker_stop", slog.String("worker", name))
}

func (o *LoggingObserver) OnCheck(name string, pending bool) {
	o.Logger.Debug("worker_check",
		slog.String("worker", name),
		slog.Bool("pending", pending),
	)
}

func (o *LoggingObserver) OnWorkStart(name string) {
	o.Logger.Debug("work_start", slog.String("worker", name))
}

func (o *LoggingObserver) OnWorkCompleted(name string, d time.Duration) {
	o.Logger.Debug("work_completed",
		slog.String("worker", name),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnSleep(name string, interval time.Duration) {
	o.Logger.Debug("worker_sleep",
		slog.String("worker", name),
		slog.Duration("interval", interval),
	)
}

func (o *LoggingObserver) OnWake(name string) {
	o.Logger.Debug("worker_wake", slog.String("worker", name))
}

func (o *LoggingObserver) OnCancelRequested(name string) {
	o.Logger.Info("worker_cancel_requested", slog.String("worker", name))
}

func (o *LoggingObserver) OnResume(name string) {
	o.Logger.Info("worker_resume", slog.String("worker", name))
}

// BasicMetrics collects simple counters and aggregate work durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	starts            atomic.Int64
	stops             atomic.Int64
	checks            atomic.Int64
	checksPending     atomic.Int64
	workRuns          atomic.Int64
	totalWorkDuration atomic.Int64 // nanoseconds
	wakes             atomic.Int64
	cancels           atomic.Int64
	resumes           atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Starts  int64
	Stops   int64
	Running int64

	Checks        int64
	ChecksPending int64
	WorkRuns      int64
	AvgWork       time.Duration

	Wakes   int64
	Cancels int64
	Resumes int64
}

func (m *BasicMetrics) OnStart(name string) {
	m.starts.Add(1)
}

func (m *BasicMetrics) OnStop(name string) {
	m.stops.Add(1)
}

func (m *BasicMetrics) OnCheck(name string, pending bool) {
	m.checks.Add(1)
	if pending {
		m.checksPending.Add(1)
	}
}

func (m *BasicMetrics) OnWorkCompleted(name string, d time.Duration) {
	m.workRuns.Add(1)
	m.totalWorkDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnWake(name string) {
	m.wakes.Add(1)
}

func (m *BasicMetrics) OnCancelRequested(name string) {
	m.cancels.Add(1)
}

func (m *BasicMetrics) OnResume(name string) {
	m.resumes.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	starts := m.starts.Load()
	stops := m.stops.Load()
	runs := m.workRuns.Load()
	totalNs := m.totalWorkDuration.Load()

	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(totalNs / runs)
	}

	return BasicMetricsSnapshot{
		Starts:        starts,
		Stops:         stops,
		Running:       starts - stops,
		Checks:        m.checks.Load(),
		ChecksPending: m.checksPending.Load(),
		WorkRuns:      runs,
		AvgWork:       avg,
		Wakes:         m.wakes.Load(),
		Cancels:       m.cancels.Load(),
		Resumes:       m.resumes.Load(),
	}
}
