package stoker

import (
	"sync/atomic"

	"github.com/petrijr/stoker/pkg/api"
)

// Indicator is the canonical in-memory work indicator for a worker: a
// single atomic bit reporting whether there is work pending. The host
// owns the indicator and flips it; the worker only consults it.
//
// The usual discipline mirrors the worker's design: any goroutine except
// the worker moves the indicator from clear to set, and only the work
// function moves it from set to clear when the work is done. The zero
// value is a clear indicator, ready for use.
//
//	var ind stoker.Indicator
//	w := stoker.New(ind.Check, work, nil)
//	...
//	ind.Raise(w) // work has appeared
type Indicator struct {
	pending atomic.Bool
}

// Set marks work as pending without waking anyone. Pair with a timed
// worker, or call Raise to also deliver the wake-up.
func (i *Indicator) Set() {
	i.pending.Store(true)
}

// Clear marks the work as done. Typically called by the work function
// once it has drained whatever the indicator stood for.
func (i *Indicator) Clear() {
	i.pending.Store(false)
}

// Pending reports whether work is pending.
func (i *Indicator) Pending() bool {
	return i.pending.Load()
}

// Check is a CheckFunc consulting the indicator. Pass it directly to New
// or NewTimed:
//
//	w := stoker.New(ind.Check, work, nil)
func (i *Indicator) Check(_ any, _ api.Handle) bool {
	return i.pending.Load()
}

// Raise sets the indicator and wakes the worker.
func (i *Indicator) Raise(w *Worker) {
	i.pending.Store(true)
	w.Wakeup()
}
