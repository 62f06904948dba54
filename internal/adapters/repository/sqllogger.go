package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/bingonight/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// sqlLogger adapts logger.Logger to gorm's logger interface. Failed
// statements log as errors, slow ones as warnings and the rest at debug
// when the level allows it.
type sqlLogger struct {
	l     logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
	now   func() time.Time
}

var _ gormlogger.Interface = (*sqlLogger)(nil)

func newSQLLogger(l logger.Logger) *sqlLogger {
	return &sqlLogger{l: l, level: gormlogger.Warn, slow: defaultSlowQuery, now: time.Now}
}

func (s *sqlLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *s
	c.level = level
	return &c
}

func (s *sqlLogger) Info(ctx context.Context, msg string, args ...any) {
	if s.level >= gormlogger.Info {
		s.l.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (s *sqlLogger) Warn(ctx context.Context, msg string, args ...any) {
	if s.level >= gormlogger.Warn {
		s.l.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (s *sqlLogger) Error(ctx context.Context, msg string, args ...any) {
	if s.level >= gormlogger.Error {
		s.l.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace logs one executed statement.
func (s *sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if s.level <= gormlogger.Silent {
		return
	}
	elapsed := s.now().Sub(begin)
	switch {
	case err != nil && s.level >= gormlogger.Error && !expected(err):
		query, rows := fc()
		s.l.Error(ctx, "sql failed",
			logger.String("sql", query),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
	case s.slow > 0 && elapsed > s.slow && s.level >= gormlogger.Warn:
		query, rows := fc()
		s.l.Warn(ctx, "slow sql",
			logger.String("sql", query),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
			logger.Duration("threshold", s.slow),
		)
	case s.level >= gormlogger.Info:
		query, rows := fc()
		s.l.Debug(ctx, "sql",
			logger.String("sql", query),
			logger.Int64("rows", rows),
			logger.Duration("elapsed", elapsed),
		)
	}
}

// expected reports errors the store turns into domain answers.
func expected(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey)
}
