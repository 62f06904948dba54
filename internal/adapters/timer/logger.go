package timer

import (
	"context"

	"github.com/okian/bingonight/pkg/logger"
)

// schedLogger adapts logger.Logger to the gocron Logger interface.
type schedLogger struct {
	l logger.Logger
}

func (s schedLogger) Debug(msg string, args ...any) {
	s.l.Debug(context.Background(), msg, logger.Any("args", args))
}

func (s schedLogger) Info(msg string, args ...any) {
	s.l.Info(context.Background(), msg, logger.Any("args", args))
}

func (s schedLogger) Warn(msg string, args ...any) {
	s.l.Warn(context.Background(), msg, logger.Any("args", args))
}

func (s schedLogger) Error(msg string, args ...any) {
	s.l.Error(context.Background(), msg, logger.Any("args", args))
}
