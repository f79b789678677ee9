// Package api contains the core building blocks used by the stoker
// background-worker library: the callback types a worker invokes, the
// Handle view those callbacks receive, and the Observer surface used for
// logging and metrics.
//
// Most users interact with the higher-level stoker package, which
// re-exports selected types and helpers from this package. The api package
// is intended for custom integrations: backend modules that supply check
// functions or wake-up sources depend on it without pulling in the worker
// implementation itself.
//
// # Callbacks
//
// A worker is driven by two user-supplied functions. The CheckFunc decides
// whether there is work pending; it runs with the worker's state lock held
// so the decision cannot race with a cancel request, and it must therefore
// return promptly and never re-enter the worker. The WorkFunc performs the
// work; it runs with no lock held, may take as long as it needs, and is
// expected to poll Handle.IsCancelled when its duration is unbounded.
//
// The split into two functions is what makes cancellation safe: the worker
// can be cancelled while doing work but not while deciding whether there
// is work.
//
// # Observability
//
// The Observer interface reports worker lifecycle transitions. Ready-made
// implementations cover logging (LoggingObserver, via log/slog) and simple
// in-memory counters (BasicMetrics); NewCompositeObserver combines several
// observers into one.
package api
