package trivia

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/bingonight/internal/domain/dedupe"
	"github.com/okian/bingonight/internal/domain/scoring"
	"github.com/okian/bingonight/pkg/logger"
)

// Option applies a configuration option to the Lifecycle.
type Option func(*Lifecycle)

// WithClock sets the clock used for question timing.
func WithClock(c clockwork.Clock) Option {
	return func(l *Lifecycle) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithResolvedMarkers sets the marker set shared by timers and End.
func WithResolvedMarkers(d dedupe.Deduper) Option {
	return func(l *Lifecycle) {
		if d != nil {
			l.resolved = d
		}
	}
}

// WithScorer sets the answer scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(l *Lifecycle) {
		if s != nil {
			l.scorer = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Lifecycle) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithDefaultTimeLimit sets the limit given to questions created without one.
func WithDefaultTimeLimit(d time.Duration) Option {
	return func(l *Lifecycle) {
		secs := int(d / time.Second)
		if secs >= MinTimeLimitSeconds && secs <= MaxTimeLimitSeconds {
			l.defaultLimit = secs
		}
	}
}

// WithDefaultPoints sets the base points given to questions created without any.
func WithDefaultPoints(points int) Option {
	return func(l *Lifecycle) {
		if points > 0 {
			l.defaultPoints = points
		}
	}
}
