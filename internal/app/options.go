package service

import (
	"time"

	"github.com/jonboulle/clockwork"
	workerpool "github.com/okian/bingonight/internal/adapters/mq/worker"
	"github.com/okian/bingonight/internal/domain/card"
	"github.com/okian/bingonight/internal/domain/draw"
	"github.com/okian/bingonight/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClock sets the clock used for timestamps and question timing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCardGenerator sets the card generator.
func WithCardGenerator(g *card.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.cards = g
		}
	}
}

// WithDrawEngine sets the ball draw engine.
func WithDrawEngine(e *draw.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.draws = e
		}
	}
}

// WithRecentEvents sets how many events GetGameState returns.
func WithRecentEvents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentEvents = n
		}
	}
}

// WithQuestionDefaults sets the time limit and points questions get when the
// host leaves them out.
func WithQuestionDefaults(limit time.Duration, points int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.questionLimit = limit
		}
		if points > 0 {
			s.questionPoints = points
		}
	}
}

// WithResolvedMarkerSize bounds the question resolution marker set.
func WithResolvedMarkerSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.markerSize = size
		}
	}
}

// WithOutbox sets the outbox queue size and worker count.
func WithOutbox(queueSize, workers int) Option {
	return func(s *Service) {
		if queueSize > 0 {
			s.queueSize = queueSize
		}
		if workers > 0 {
			s.workerCount = workers
		}
	}
}

// WithSinks adds outbox sinks. Every appended event is handed to each sink.
func WithSinks(sinks ...workerpool.Sink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithArchiver archives each session's event log before it is purged.
func WithArchiver(a Archiver) Option {
	return func(s *Service) {
		if a != nil {
			s.archiver = a
		}
	}
}
