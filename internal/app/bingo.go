package service

import (
	"context"
	"errors"

	"github.com/okian/bingonight/internal/domain/draw"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/prize"
	"github.com/okian/bingonight/internal/domain/round"
	"github.com/okian/bingonight/internal/domain/types"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/okian/bingonight/pkg/metrics"
)

// DrawBall draws the next ball of an active session.
func (s *Service) DrawBall(ctx context.Context, code string) (types.DrawResult, error) {
	return locked(ctx, s, "service.DrawBall", code, func(sess *model.Session) (types.DrawResult, error) {
		if sess.Status != model.StatusActive {
			return types.DrawResult{}, errs.ErrInactiveSession
		}
		n, err := s.draws.Pick(sess.DrawnBalls)
		if err != nil {
			return types.DrawResult{}, err
		}
		sess.DrawnBalls = append(sess.DrawnBalls.Clone(), n)
		sess.CurrentBall = &n
		if err := s.saveSession(ctx, sess); err != nil {
			return types.DrawResult{}, err
		}

		res := types.DrawResult{
			Number:     n,
			Letter:     draw.Letter(n),
			Display:    draw.Display(n),
			DrawnBalls: sess.DrawnBalls.Clone(),
			Remaining:  draw.Remaining(sess.DrawnBalls),
		}
		if err := s.emit(ctx, sess.ID, model.EventBallDrawn, model.BallPayload{
			Number:    res.Number,
			Letter:    res.Letter,
			Display:   res.Display,
			Remaining: res.Remaining,
		}); err != nil {
			return types.DrawResult{}, err
		}
		metrics.RecordBallDrawn()
		s.logger.Debug(ctx, "ball drawn", logger.SessionID(sess.ID), logger.String("ball", res.Display))
		return res, nil
	})
}

// MarkCells marks cells on the player's card and claims prizes the
// session's policy allows.
func (s *Service) MarkCells(ctx context.Context, code, playerID string, cells []int) (prize.MarkResult, error) {
	return locked(ctx, s, "service.MarkCells", code, func(sess *model.Session) (prize.MarkResult, error) {
		p, err := s.player(ctx, sess, playerID)
		if err != nil {
			return prize.MarkResult{}, err
		}
		return s.arbiter.Mark(ctx, sess, p, cells)
	})
}

// AnnounceWinner claims the best prize still open for the player, or
// announces a general winner when both are taken.
func (s *Service) AnnounceWinner(ctx context.Context, code, playerID string) (prize.Announcement, error) {
	return locked(ctx, s, "service.AnnounceWinner", code, func(sess *model.Session) (prize.Announcement, error) {
		p, err := s.player(ctx, sess, playerID)
		if err != nil {
			return prize.Announcement{}, err
		}
		return s.arbiter.AnnounceAuto(ctx, sess, p)
	})
}

// AnnounceWinnerManual claims winType for the player on the host's word.
func (s *Service) AnnounceWinnerManual(ctx context.Context, code, playerID string, winType model.Prize) (prize.Announcement, error) {
	return locked(ctx, s, "service.AnnounceWinnerManual", code, func(sess *model.Session) (prize.Announcement, error) {
		p, err := s.player(ctx, sess, playerID)
		if err != nil {
			return prize.Announcement{}, err
		}
		return s.arbiter.AnnounceManual(ctx, sess, p, winType)
	})
}

// EndRound resolves a running question, then resets the session for the
// next round and deals new cards.
func (s *Service) EndRound(ctx context.Context, code string) (round.Result, error) {
	return locked(ctx, s, "service.EndRound", code, func(sess *model.Session) (round.Result, error) {
		if sess.Status != model.StatusEnded && sess.RoundNumber < sess.MaxRounds && sess.CurrentQuestionID != "" {
			if _, err := s.questions.End(ctx, sess); err != nil &&
				!errors.Is(err, errs.ErrInvalidState) && !errors.Is(err, errs.ErrNotFound) {
				return round.Result{}, err
			}
		}
		return s.rounds.EndRound(ctx, sess)
	})
}
