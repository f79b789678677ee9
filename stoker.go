package stoker

import (
	"github.com/petrijr/stoker/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Handle               = api.Handle
	CheckFunc            = api.CheckFunc
	WorkFunc             = api.WorkFunc
	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)
