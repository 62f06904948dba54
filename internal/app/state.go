package service

import (
	"context"
	"errors"

	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/types"
	"github.com/okian/bingonight/pkg/metrics"
)

// GetGameState returns the polling snapshot of the session. When playerID
// is set the player's own record is included.
func (s *Service) GetGameState(ctx context.Context, code, playerID string) (types.GameState, error) {
	const op = "service.GetGameState"
	sess, err := s.sessionByCode(ctx, code)
	if err != nil {
		return types.GameState{}, errs.Wrap(op, err)
	}
	players, err := s.store.ListPlayers(ctx, sess.ID)
	if err != nil {
		return types.GameState{}, errs.Wrap(op, err)
	}
	teams, err := s.store.ListTeams(ctx, sess.ID)
	if err != nil {
		return types.GameState{}, errs.Wrap(op, err)
	}
	events, err := s.store.ListEvents(ctx, sess.ID, s.recentEvents)
	if err != nil {
		return types.GameState{}, errs.Wrap(op, err)
	}
	state := types.GameState{
		Session:      sess,
		Players:      players,
		Teams:        teams,
		RecentEvents: events,
	}

	if sess.CurrentQuestionID != "" {
		q, err := s.store.GetQuestion(ctx, sess.CurrentQuestionID)
		switch {
		case err == nil:
			state.CurrentQuestion = types.NewQuestionView(q, sess)
		case !errors.Is(err, errs.ErrNotFound):
			return types.GameState{}, errs.Wrap(op, err)
		}
	}
	if playerID != "" {
		p, err := s.player(ctx, sess, playerID)
		if err != nil {
			return types.GameState{}, errs.Wrap(op, err)
		}
		state.Player = p
	}
	return state, nil
}

// GetWinnerHistory returns the session's winner announcements in order.
func (s *Service) GetWinnerHistory(ctx context.Context, code string) ([]*model.Event, error) {
	const op = "service.GetWinnerHistory"
	sess, err := s.sessionByCode(ctx, code)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	events, err := s.store.ListEventsByType(ctx, sess.ID, model.EventWinnerAnnounced)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	return events, nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	count, err := s.store.CountSessions(ctx)
	if err != nil {
		return types.Stats{}, errs.Wrap("service.Stats", err)
	}
	s.mu.Lock()
	workers := 0
	if s.started && s.workerPool != nil {
		workers = s.workerPool.Size()
	}
	s.mu.Unlock()

	stats := types.Stats{
		Sessions:      count,
		PendingTimers: s.timers.Pending(),
		QueueLength:   s.eventQueue.Len(ctx),
		Workers:       workers,
	}
	metrics.UpdateActiveSessions(count)
	return stats, nil
}
