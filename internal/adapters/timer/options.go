package timer

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/bingonight/pkg/logger"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithClock sets the clock shared by the registry and its scheduler.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCallbackTimeout bounds how long a single callback may run.
func WithCallbackTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.callbackTimeout = d
		}
	}
}
