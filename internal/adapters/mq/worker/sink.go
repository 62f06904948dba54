package worker

import (
	"context"

	"github.com/okian/bingonight/pkg/logger"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink returns a sink logging through l, or the default logger when l
// is nil.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.Get().Named("events")
	}
	return &LogSink{logger: l}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Handle implements Sink.
func (s *LogSink) Handle(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: matches Sink
	s.logger.Info(ctx, "event",
		logger.SessionID(e.SessionID),
		logger.Int64("seq", e.Seq),
		logger.String("type", string(e.Type)),
		logger.String("payload", string(e.Payload)),
	)
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	ID string
	Fn func(ctx context.Context, e Event) error
}

// Name implements Sink.
func (f SinkFunc) Name() string { return f.ID }

// Handle implements Sink.
func (f SinkFunc) Handle(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: matches Sink
	return f.Fn(ctx, e)
}
