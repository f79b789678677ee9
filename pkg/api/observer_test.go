package api

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver appends event names so tests can assert on ordering
// and fan-out.
type recordingObserver struct {
	NoopObserver

	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) record(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingObserver) OnStart(name string)                          { r.record("start:" + name) }
func (r *recordingObserver) OnStop(name string)                           { r.record("stop:" + name) }
func (r *recordingObserver) OnWorkStart(name string)                      { r.record("work-start:" + name) }
func (r *recordingObserver) OnWorkCompleted(name string, d time.Duration) { r.record("work-done:" + name) }

func (r *recordingObserver) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestNewCompositeObserver_FiltersNil(t *testing.T) {
	t.Parallel()

	// All nil collapses to the noop observer.
	obs := NewCompositeObserver(nil, nil)
	_, ok := obs.(NoopObserver)
	assert.True(t, ok, "expected NoopObserver for all-nil input, got %T", obs)

	// A single non-nil observer is returned directly, not wrapped.
	single := &recordingObserver{}
	obs = NewCompositeObserver(nil, single, nil)
	assert.Same(t, single, obs)
}

func TestCompositeObserver_FansOut(t *testing.T) {
	t.Parallel()

	a := &recordingObserver{}
	b := &recordingObserver{}
	obs := NewCompositeObserver(a, b)

	obs.OnStart("w")
	obs.OnWorkStart("w")
	obs.OnWorkCompleted("w", time.Millisecond)
	obs.OnStop("w")

	want := []string{"start:w", "work-start:w", "work-done:w", "stop:w"}
	assert.Equal(t, want, a.snapshot())
	assert.Equal(t, want, b.snapshot())
}

func TestBasicMetrics_Snapshot(t *testing.T) {
	t.Parallel()

	m := &BasicMetrics{}

	m.OnStart("w")
	m.OnCheck("w", true)
	m.OnCheck("w", false)
	m.OnWorkCompleted("w", 10*time.Millisecond)
	m.OnWorkCompleted("w", 30*time.Millisecond)
	m.OnWake("w")
	m.OnCancelRequested("w")
	m.OnStop("w")
	m.OnResume("w")
	m.OnStart("w")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Starts)
	assert.Equal(t, int64(1), snap.Stops)
	assert.Equal(t, int64(1), snap.Running)
	assert.Equal(t, int64(2), snap.Checks)
	assert.Equal(t, int64(1), snap.ChecksPending)
	assert.Equal(t, int64(2), snap.WorkRuns)
	assert.Equal(t, 20*time.Millisecond, snap.AvgWork)
	assert.Equal(t, int64(1), snap.Wakes)
	assert.Equal(t, int64(1), snap.Cancels)
	assert.Equal(t, int64(1), snap.Resumes)
}

func TestLoggingObserver_WritesWorkerName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	obs := NewLoggingObserver(logger)
	obs.OnStart("trim")
	obs.OnSleep("trim", time.Second)
	obs.OnCancelRequested("trim")
	obs.OnStop("trim")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "worker_start")
	assert.Contains(t, out, "worker_sleep")
	assert.Contains(t, out, "worker_cancel_requested")
	assert.Contains(t, out, "worker_stop")
	assert.Equal(t, 4, strings.Count(out, "worker=trim"))
}

func TestNewLoggingObserver_NilLoggerUsesDefault(t *testing.T) {
	t.Parallel()

	obs := NewLoggingObserver(nil)
	lo, ok := obs.(*LoggingObserver)
	require.True(t, ok)
	assert.NotNil(t, lo.Logger)
}
