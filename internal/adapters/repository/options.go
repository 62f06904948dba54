package repository

import (
	"github.com/jonboulle/clockwork"
	"github.com/okian/bingonight/pkg/logger"
)

type options struct {
	clock  clockwork.Clock
	logger logger.Logger
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("repository")
	}
	return o
}
