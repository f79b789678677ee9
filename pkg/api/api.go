package api

// Handle is the view of a worker that its own callbacks receive. The
// concrete implementation lives in the stoker package; callbacks should
// depend only on this interface.
type Handle interface {
	// Name returns the worker's configured name. Useful for logging
	// inside callbacks that serve several workers.
	Name() string

	// IsCancelled reports whether a cancel request is pending for the
	// worker. It must be called only from the work callback, on the
	// worker's own goroutine; calling it from the check callback
	// self-deadlocks because the check callback already runs under the
	// worker's state lock.
	IsCancelled() bool
}

// CheckFunc decides whether a worker has pending work. It runs on the
// worker goroutine with the worker's state lock held, which freezes the
// cancel/resume surface while the decision is made: the decision and the
// dispatch of the work callback cannot race with a cancel.
//
// Because the state lock is held, a CheckFunc must return promptly, must
// not call back into the worker (including Handle.IsCancelled), and must
// not acquire any lock that another goroutine could hold while calling
// Wakeup, Cancel or Resume on the same worker.
//
// Workers can wake up spuriously, so a CheckFunc must tolerate being
// invoked when nothing has changed.
type CheckFunc func(arg any, h Handle) bool

// WorkFunc performs the pending work. It runs on the worker goroutine
// with no worker lock held and may take arbitrarily long. Long-running
// implementations should poll Handle.IsCancelled and return early when it
// reports true; cancellation is cooperative and never interrupts a
// WorkFunc mid-execution.
type WorkFunc func(arg any, h Handle)
