package normalize

import (
	"time"

	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithClock overrides the time source used by the recency filter.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLogger sets a custom logger for row-level drop reporting.
func WithLogger(log logger.Logger) Option {
	return func(n *Normalizer) {
		if log != nil {
			n.log = log
		}
	}
}
