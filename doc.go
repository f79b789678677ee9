// Package stoker provides a managed background-worker primitive for Go.
//
// A stoker worker is a small, reusable handle that lets a host subsystem
// run an isolated, long-lived activity on its own goroutine: wake it when
// there is work, let it sleep when there isn't, cancel it safely even
// mid-work, resume it later, and eventually destroy it. It is designed
// for activities that span many internal epochs of the host (background
// space reclamation, scrubbing, trimming) where there is exactly one
// authoritative indicator, owned by the caller, of whether there is work
// to do.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Worker
//  2. CheckFunc and WorkFunc
//  3. Indicator
//  4. Observer
//  5. Sweeper
//
// # Worker
//
// The Worker handle owns the background goroutine and exposes the request
// surface: Wakeup, Cancel, Resume, IsCancelled, Destroy. Internally it
// alternates between the caller's check function and work function, with
// condition-variable sleeps in between.
//
// Workers are created with New (sleep until woken) or NewTimed (also wake
// on a fixed interval):
//
//	w := stoker.New(check, work, arg)
//	...
//	w.Wakeup()   // there is work now
//	...
//	w.Cancel()   // blocks until the goroutine has exited
//	w.Destroy()
//
// A worker is NOT a replacement for a plain goroutine; it earns its keep
// when the cancel/resume protocol and the sleep/wake cycle match the
// host's needs.
//
// # CheckFunc and WorkFunc
//
// The check function decides whether there is work; it runs with the
// worker's state lock held so the decision cannot race with a cancel, and
// it must return promptly. The work function does the work; it runs with
// no lock held and may take as long as it needs. Long work items should
// poll Handle.IsCancelled:
//
//	func work(arg any, h stoker.Handle) {
//		for !done() && !h.IsCancelled() {
//			// do a bounded chunk
//		}
//	}
//
// This split is what makes cancellation safe: a worker can be cancelled
// while doing work but never while deciding whether there is work.
//
// # Indicator
//
// Indicator is the canonical in-memory form of the caller-owned "there is
// work" bit: an atomic boolean whose Check method plugs straight into New,
// and whose Raise method flips the bit and wakes the worker in one call.
// There is deliberately no work queue in this package: the indicator is
// one bit, and anything richer belongs to the host.
//
// # Observer
//
// The Observer interface (re-exported from pkg/api) reports lifecycle
// transitions: start, stop, check, work, sleep, wake, cancel, resume.
// Ready-made implementations cover structured logging via log/slog and
// simple in-memory counters; NewCompositeObserver combines them.
//
// # Sweeper
//
// Sweeper bundles a worker with a SQLite retention job: it deletes
// expired rows from a caller's table in bounded batches, woken eagerly by
// NotifyWrite and backstopped by a timed interval. It is both a useful
// component and the reference example of wiring a worker to a real work
// indicator.
//
// Wake-up sources for other backends live in nested modules: stoker/redis
// (pub/sub notifier), stoker/postgres (LISTEN/NOTIFY notifier) and
// stoker/mongo (polled due-document indicator).
package stoker
