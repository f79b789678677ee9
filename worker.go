package stoker

import (
	"sync"
	"time"

	"github.com/petermattis/goid"
	"github.com/petrijr/stoker/pkg/api"
)

// Worker is a managed background worker: a long-lived goroutine that
// alternates between a caller-supplied check function and a
// caller-supplied work function, sleeping in between.
//
// A worker is a good fit for an activity that spans many internal epochs
// of its host (space reclamation, scrubbing, trimming) and that has a
// single authoritative indicator, owned by the caller, of whether there
// is work to do. The usual cycle:
//
//  1. An external goroutine flips the indicator from "nothing to do" to
//     "work pending" and calls Wakeup.
//  2. The worker wakes, the check function consults the indicator and
//     returns true, and the work function runs.
//  3. When the work function is done it clears the indicator, the next
//     check returns false, and the worker goes back to sleep.
//
// Besides explicit wake-ups, a worker created with NewTimed wakes on its
// own after the configured interval.
//
// Workers can wake up spuriously; check functions must tolerate being
// invoked when nothing has changed.
//
// # Requests
//
// Wakeup, Cancel and Resume are requests on a worker to change its
// internal state. Requests are serialized by the request lock, while the
// state itself is protected by the state lock. A request acquires the
// request lock and then immediately the state lock; the worker goroutine
// acquires only the state lock. Incoming requests are thereby serialized
// against each other while the state lock remains free for communication
// with the worker via the condition variable.
//
// # Cancellation
//
// Cancel blocks until the worker goroutine has exited. The worker notices
// a pending cancel every time the work function returns and every time it
// wakes up. A long-running work function can observe a pending cancel
// early via IsCancelled; cancellation is cooperative and never interrupts
// the work function mid-execution.
//
// Cancelling does not discard the worker's callbacks or locks; a
// cancelled worker can be restarted with Resume. To dispose of a worker
// completely, Cancel it first and then call Destroy.
type Worker struct {
	// stateMu protects gid, cancel and destroyed, and is the mutex the
	// condition variable is bound to.
	stateMu sync.Mutex

	// reqMu serializes external requests (Wakeup, Cancel, Resume).
	reqMu sync.Mutex

	// cv is the notification mechanism between requests and the loop.
	cv *sync.Cond

	// gid is the runtime id of the goroutine running the loop, or 0 when
	// the worker is stopped. The loop records it when it starts and clears
	// it on exit; spawnLocked waits until it has been recorded.
	gid int64

	// cancel is set by a cancel request and cleared by the loop,
	// atomically with clearing gid, on the way out.
	cancel bool

	// destroyed poisons the handle; every operation panics afterwards.
	destroyed bool

	// interval bounds the time spent sleeping between checks. Zero means
	// the worker does not wake up until it is signalled.
	interval time.Duration

	// caller-provided callbacks and data, immutable after creation.
	check api.CheckFunc
	work  api.WorkFunc
	arg   any

	name string
	obs  api.Observer
}

var _ api.Handle = (*Worker)(nil)

// Config carries optional settings for a worker. The zero value is valid:
// an unnamed worker with no observer that sleeps until explicitly woken.
type Config struct {
	// Name identifies the worker in observer callbacks and logs.
	// Defaults to "worker".
	Name string

	// Interval bounds the time between check invocations when there is no
	// work and no wake-up. Zero means the worker waits indefinitely for
	// an explicit Wakeup.
	Interval time.Duration

	// Observer receives lifecycle callbacks. Nil disables observation.
	Observer api.Observer
}

// New creates a worker and starts its goroutine. The worker sleeps until
// explicitly woken; see NewTimed for a self-waking variant.
//
// check and work must be non-nil; arg is passed to both verbatim and is
// opaque to the worker. On return the worker goroutine is running (its
// identity is recorded) and no cancel is pending.
func New(check api.CheckFunc, work api.WorkFunc, arg any) *Worker {
	return NewWithConfig(check, work, arg, Config{})
}

// NewTimed is like New, but the worker additionally wakes on its own
// whenever it has slept for the given interval, which must not be
// negative. A zero interval is equivalent to New.
func NewTimed(check api.CheckFunc, work api.WorkFunc, arg any, interval time.Duration) *Worker {
	return NewWithConfig(check, work, arg, Config{Interval: interval})
}

// NewWithConfig creates a worker with explicit configuration.
func NewWithConfig(check api.CheckFunc, work api.WorkFunc, arg any, cfg Config) *Worker {
	if check == nil {
		panic("stoker: nil check function")
	}
	if work == nil {
		panic("stoker: nil work function")
	}
	if cfg.Interval < 0 {
		panic("stoker: negative interval")
	}

	name := cfg.Name
	if name == "" {
		name = "worker"
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}

	w := &Worker{
		interval: cfg.Interval,
		check:    check,
		work:     work,
		arg:      arg,
		name:     name,
		obs:      obs,
	}
	w.cv = sync.NewCond(&w.stateMu)

	w.stateMu.Lock()
	w.spawnLocked()
	w.stateMu.Unlock()

	return w
}

// Name returns the worker's configured name.
func (w *Worker) Name() string {
	return w.name
}

// spawnLocked starts the worker goroutine and blocks until it has
// recorded its identity, so that callers of New and Resume observe a
// running worker on return. Requires the state lock.
func (w *Worker) spawnLocked() {
	go w.run()
	for w.gid == 0 {
		w.cv.Wait()
	}
}

// run is the worker loop. It holds the state lock continuously except
// while executing the work function and while blocked in waitLocked.
func (w *Worker) run() {
	w.stateMu.Lock()

	w.gid = goid.Get()
	// Release the spawner, which is waiting for the identity.
	w.cv.Broadcast()
	w.obs.OnStart(w.name)

	for !w.cancel {
		if pending := w.check(w.arg, w); pending {
			w.obs.OnCheck(w.name, true)
			w.stateMu.Unlock()

			w.obs.OnWorkStart(w.name)
			start := time.Now()
			w.work(w.arg, w)
			w.obs.OnWorkCompleted(w.name, time.Since(start))

			w.stateMu.Lock()
		} else {
			w.obs.OnCheck(w.name, false)
			w.obs.OnSleep(w.name, w.interval)
			w.waitLocked()
			w.obs.OnWake(w.name)
		}
	}

	// Clear out the goroutine identity and notify the Cancel caller that
	// the loop has stopped running.
	w.gid = 0
	w.cancel = false
	w.cv.Broadcast()
	w.obs.OnStop(w.name)

	w.stateMu.Unlock()
}

// waitLocked blocks on the condition variable until signalled. With a
// nonzero interval a timer broadcast bounds the wait; the broadcast can
// reach other waiters or arrive late, both of which only cause the
// spurious wake-ups the loop already tolerates. Requires the state lock.
func (w *Worker) waitLocked() {
	if w.interval > 0 {
		t := time.AfterFunc(w.interval, w.cv.Broadcast)
		w.cv.Wait()
		t.Stop()
	} else {
		w.cv.Wait()
	}
}

// Wakeup wakes the worker if it is sleeping.
//
// There are four states the worker can be found in when issuing the
// broadcast:
//
//  1. The common case of the worker being asleep, at which point the
//     broadcast wakes it up and the check function runs again.
//  2. The worker has been cancelled. Waking a cancelled worker is a
//     no-op; any remaining work is handled the next time it is resumed.
//  3. The worker is executing the work function and is already up, so
//     this is a no-op.
//  4. The worker was just created or resumed, which behaves like 3.
func (w *Worker) Wakeup() {
	w.reqMu.Lock()
	defer w.reqMu.Unlock()
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	w.mustUsableLocked()
	w.cv.Broadcast()
}

// Cancel requests that the worker stop and blocks until its goroutine has
// exited. If the worker is already stopped, Cancel returns immediately;
// cancelling twice is equivalent to cancelling once.
//
// On return the worker goroutine has exited and the handle can be
// restarted with Resume or released with Destroy. A work function that
// never returns and never polls IsCancelled delays Cancel indefinitely.
func (w *Worker) Cancel() {
	w.reqMu.Lock()
	defer w.reqMu.Unlock()
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	w.mustUsableLocked()

	// Holding the state lock, the worker is in one of four states:
	//
	//  1. Already stopped: nothing to do.
	//  2. Sleeping: the broadcast wakes it, it observes the flag and
	//     exits.
	//  3. Executing the work function: it observes the flag when the
	//     function returns.
	//  4. Just created or resumed, which behaves like 3.
	//
	// Requests are serialized, so by the time control returns the worker
	// has exited and no other request has interleaved.
	if w.gid == 0 {
		return
	}

	w.cancel = true
	w.obs.OnCancelRequested(w.name)

	// Broadcast in case the worker is sleeping.
	w.cv.Broadcast()

	for w.gid != 0 {
		w.cv.Wait()
	}

	if w.cancel {
		panic("stoker: cancel flag set after worker exit")
	}
}

// Resume restarts a stopped worker. If the worker is still running
// (sleeping, working, or freshly spawned), Resume is a no-op.
func (w *Worker) Resume() {
	w.reqMu.Lock()
	defer w.reqMu.Unlock()
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	w.mustUsableLocked()

	if w.check == nil || w.work == nil {
		panic("stoker: resume of a worker without callbacks")
	}

	// A stopped worker cleared the flag on exit and a running one cannot
	// have it set while we hold the request lock.
	if w.cancel {
		panic("stoker: resume of a worker with a pending cancel")
	}

	if w.gid == 0 {
		w.obs.OnResume(w.name)
		w.spawnLocked()
	}
}

// IsCancelled reports whether a cancel request is pending. It is intended
// to be called from within the work function, on the worker's own
// goroutine, to poll for cancellation during a long work item; calling it
// from any other goroutine panics.
//
// IsCancelled takes only the state lock, never the request lock. A
// concurrent Cancel holds the request lock while waiting on the condition
// variable, so acquiring the request lock here would block the worker on
// the very caller that is waiting for the worker to finish. Reading under
// the state lock alone is sufficient: the cancel flag has exactly one
// non-worker writer, and that writer holds the state lock.
func (w *Worker) IsCancelled() bool {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	w.mustUsableLocked()
	if w.gid != goid.Get() {
		panic("stoker: IsCancelled called from outside the worker goroutine")
	}
	return w.cancel
}

// Running reports whether a worker goroutine currently exists for this
// handle.
func (w *Worker) Running() bool {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	w.mustUsableLocked()
	return w.gid != 0
}

// Destroy releases the handle. The worker must be stopped: the canonical
// cleanup sequence is Cancel followed by Destroy. Any operation on the
// handle after Destroy panics.
func (w *Worker) Destroy() {
	w.reqMu.Lock()
	defer w.reqMu.Unlock()
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	w.mustUsableLocked()
	if w.gid != 0 {
		panic("stoker: destroy of a running worker")
	}
	if w.cancel {
		panic("stoker: destroy of a worker with a pending cancel")
	}
	w.destroyed = true
}

func (w *Worker) mustUsableLocked() {
	if w.destroyed {
		panic("stoker: use of destroyed worker")
	}
}
