package service

import (
	"context"

	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/pkg/logger"
)

// PurgeSessions removes every session and everything in it. With an
// archiver configured each session's event log is archived first, and a
// failed archive leaves sessions and their pending timers untouched.
func (s *Service) PurgeSessions(ctx context.Context) (int64, error) {
	const op = "service.PurgeSessions"
	if s.archiver != nil {
		sessions, err := s.store.ListSessions(ctx)
		if err != nil {
			return 0, errs.Wrap(op, err)
		}
		for _, sess := range sessions {
			events, err := s.store.ListEvents(ctx, sess.ID, 0)
			if err != nil {
				return 0, errs.Wrap(op, err)
			}
			if err := s.archiver.ArchiveSession(ctx, sess, events); err != nil {
				return 0, errs.Wrap(op, err)
			}
		}
	}

	cancelled := s.timers.CancelAll()
	n, err := s.store.PurgeSessions(ctx)
	if err != nil {
		return 0, errs.Wrap(op, err)
	}
	s.logger.Warn(ctx, "sessions purged", logger.Int64("sessions", n), logger.Int("timersCancelled", cancelled))
	return n, nil
}

// PurgePlayers removes every player and their answers.
func (s *Service) PurgePlayers(ctx context.Context) (int64, error) {
	n, err := s.store.PurgePlayers(ctx)
	if err != nil {
		return 0, errs.Wrap("service.PurgePlayers", err)
	}
	s.logger.Warn(ctx, "players purged", logger.Int64("players", n))
	return n, nil
}

// PurgeRecords removes every answer and event.
func (s *Service) PurgeRecords(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeRecords(ctx)
	if err != nil {
		return 0, errs.Wrap("service.PurgeRecords", err)
	}
	s.logger.Warn(ctx, "records purged", logger.Int64("records", n))
	return n, nil
}

// PurgeTeams removes every team.
func (s *Service) PurgeTeams(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeTeams(ctx)
	if err != nil {
		return 0, errs.Wrap("service.PurgeTeams", err)
	}
	s.logger.Warn(ctx, "teams purged", logger.Int64("teams", n))
	return n, nil
}
