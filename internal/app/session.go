package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/types"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/okian/bingonight/pkg/metrics"
)

// PinLength is the number of digits in a reconnect pin.
const PinLength = 4

// CreateSession creates a session in round one. An empty bingo mode means
// standard.
func (s *Service) CreateSession(ctx context.Context, code string, maxRounds int, mode model.BingoMode) (*model.Session, error) {
	const op = "service.CreateSession"
	if strings.TrimSpace(code) == "" {
		return nil, errs.Wrap(op, errs.Invalidf("session code is required"))
	}
	if maxRounds < model.MinRounds || maxRounds > model.MaxRounds {
		return nil, errs.Wrap(op, errs.Invalidf("max rounds must be between %d and %d", model.MinRounds, model.MaxRounds))
	}
	if mode == "" {
		mode = model.BingoStandard
	}
	if !mode.Valid() {
		return nil, errs.Wrap(op, errs.Invalidf("unknown bingo mode %q", mode))
	}

	sess := &model.Session{
		ID:          uuid.NewString(),
		Code:        code,
		Status:      model.StatusWaiting,
		Mode:        model.ModeBingo,
		BingoMode:   mode,
		RoundNumber: 1,
		MaxRounds:   maxRounds,
		DrawnBalls:  model.IntList{},
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, errs.ErrDuplicate) {
			return nil, errs.Wrap(op, errs.ErrSessionExists)
		}
		return nil, errs.Wrap(op, err)
	}
	if err := s.emit(ctx, sess.ID, model.EventSessionCreated, map[string]any{
		"code":      sess.Code,
		"maxRounds": sess.MaxRounds,
		"bingoMode": sess.BingoMode,
	}); err != nil {
		return nil, errs.Wrap(op, err)
	}
	s.logger.Info(ctx, "session created",
		logger.SessionID(sess.ID),
		logger.String("code", sess.Code),
		logger.Int("maxRounds", maxRounds),
		logger.String("bingoMode", string(mode)),
	)
	return sess, nil
}

// StartGame moves a waiting or paused session to active.
func (s *Service) StartGame(ctx context.Context, code string) (*model.Session, error) {
	return s.transition(ctx, "service.StartGame", code, model.StatusActive, model.EventGameStarted,
		model.StatusWaiting, model.StatusPaused)
}

// PauseGame moves an active session to paused.
func (s *Service) PauseGame(ctx context.Context, code string) (*model.Session, error) {
	return s.transition(ctx, "service.PauseGame", code, model.StatusPaused, model.EventGamePaused,
		model.StatusActive)
}

// EndGame ends the session from any other status and drops its timers.
func (s *Service) EndGame(ctx context.Context, code string) (*model.Session, error) {
	return s.transition(ctx, "service.EndGame", code, model.StatusEnded, model.EventGameEnded,
		model.StatusWaiting, model.StatusActive, model.StatusPaused, model.StatusWinnerAnnounced)
}

func (s *Service) transition(ctx context.Context, op, code string, to model.SessionStatus, typ model.EventType, from ...model.SessionStatus) (*model.Session, error) {
	return locked(ctx, s, op, code, func(sess *model.Session) (*model.Session, error) {
		if !statusIn(sess.Status, from) {
			if sess.Status == model.StatusEnded {
				return nil, errs.ErrSessionEnded
			}
			return nil, errs.Statef("cannot move from %s to %s", sess.Status, to)
		}
		prev := sess.Status
		sess.Status = to
		if to == model.StatusEnded {
			s.questions.CancelTimers(sess)
		}
		if err := s.saveSession(ctx, sess); err != nil {
			return nil, err
		}
		if err := s.emit(ctx, sess.ID, typ, map[string]any{"from": prev, "to": to}); err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "session status changed",
			logger.SessionID(sess.ID),
			logger.String("from", string(prev)),
			logger.String("to", string(to)),
		)
		return sess, nil
	})
}

func statusIn(st model.SessionStatus, set []model.SessionStatus) bool {
	for _, x := range set {
		if x == st {
			return true
		}
	}
	return false
}

// SwitchMode changes between bingo and trivia while the game is not active.
func (s *Service) SwitchMode(ctx context.Context, code string, mode model.GameMode) (*model.Session, error) {
	const op = "service.SwitchMode"
	if !mode.Valid() {
		return nil, errs.Wrap(op, errs.Invalidf("unknown mode %q", mode))
	}
	return locked(ctx, s, op, code, func(sess *model.Session) (*model.Session, error) {
		switch sess.Status {
		case model.StatusEnded:
			return nil, errs.ErrSessionEnded
		case model.StatusActive:
			return nil, errs.Statef("pause the game before switching mode")
		}
		prev := sess.Mode
		sess.Mode = mode
		if err := s.saveSession(ctx, sess); err != nil {
			return nil, err
		}
		if err := s.emit(ctx, sess.ID, model.EventModeSwitched, map[string]any{"from": prev, "to": mode}); err != nil {
			return nil, err
		}
		return sess, nil
	})
}

// JoinOrReconnect adds a player to the session, or reactivates the player
// with the same nickname when the pin matches.
func (s *Service) JoinOrReconnect(ctx context.Context, code, nickname, pin, teamID string) (types.JoinResult, error) {
	const op = "service.JoinOrReconnect"
	if strings.TrimSpace(nickname) == "" {
		return types.JoinResult{}, errs.Wrap(op, errs.Invalidf("nickname is required"))
	}
	if !validPin(pin) {
		return types.JoinResult{}, errs.Wrap(op, errs.Invalidf("pin must be %d digits", PinLength))
	}
	return locked(ctx, s, op, code, func(sess *model.Session) (types.JoinResult, error) {
		if sess.Status == model.StatusEnded {
			return types.JoinResult{}, errs.ErrSessionEnded
		}
		if teamID != "" {
			if _, err := s.team(ctx, sess, teamID); err != nil {
				return types.JoinResult{}, err
			}
		}

		existing, err := s.store.GetPlayerByNickname(ctx, sess.ID, nickname)
		switch {
		case err == nil:
			p, err := s.reconnect(ctx, sess, existing, pin, teamID)
			if err != nil {
				return types.JoinResult{}, err
			}
			return types.JoinResult{Player: p, Session: sess, Reconnected: true}, nil
		case !errors.Is(err, errs.ErrNotFound):
			return types.JoinResult{}, err
		}

		now := s.clock.Now()
		p := &model.Player{
			ID:         uuid.NewString(),
			SessionID:  sess.ID,
			Nickname:   nickname,
			Pin:        pin,
			Status:     model.PlayerActive,
			TeamID:     teamID,
			LastSeenAt: now,
			CreatedAt:  now,
		}
		s.rounds.Deal(p)
		if err := s.store.CreatePlayer(ctx, p); err != nil {
			if errors.Is(err, errs.ErrDuplicate) {
				return types.JoinResult{}, errs.ErrNicknameTaken
			}
			return types.JoinResult{}, err
		}
		if err := s.emit(ctx, sess.ID, model.EventPlayerJoined, map[string]any{
			"playerId": p.ID,
			"nickname": p.Nickname,
			"teamId":   p.TeamID,
		}); err != nil {
			return types.JoinResult{}, err
		}
		metrics.RecordPlayerJoined()
		s.logger.Info(ctx, "player joined", logger.SessionID(sess.ID), logger.PlayerID(p.ID))
		return types.JoinResult{Player: p, Session: sess}, nil
	})
}

func (s *Service) reconnect(ctx context.Context, sess *model.Session, p *model.Player, pin, teamID string) (*model.Player, error) {
	if p.Pin != pin {
		return nil, errs.NewKind("service.reconnect", errs.ErrInvalidCredentials)
	}
	p.Status = model.PlayerActive
	p.LastSeenAt = s.clock.Now()
	if len(p.Card) != model.CardSize {
		s.rounds.Deal(p)
	}
	if teamID != "" {
		p.TeamID = teamID
	}
	if err := s.store.SavePlayer(ctx, p); err != nil {
		return nil, err
	}
	if err := s.emit(ctx, sess.ID, model.EventPlayerReconnected, map[string]any{
		"playerId": p.ID,
		"nickname": p.Nickname,
	}); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "player reconnected", logger.SessionID(sess.ID), logger.PlayerID(p.ID))
	return p, nil
}

func validPin(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// KickPlayer deactivates the player and wipes their card.
func (s *Service) KickPlayer(ctx context.Context, code, playerID string) (*model.Player, error) {
	return locked(ctx, s, "service.KickPlayer", code, func(sess *model.Session) (*model.Player, error) {
		p, err := s.player(ctx, sess, playerID)
		if err != nil {
			return nil, err
		}
		p.Status = model.PlayerKicked
		p.Card = model.IntList{}
		p.Marked = model.IntList{}
		if err := s.store.SavePlayer(ctx, p); err != nil {
			return nil, err
		}
		if err := s.emit(ctx, sess.ID, model.EventPlayerKicked, map[string]any{
			"playerId": p.ID,
			"nickname": p.Nickname,
		}); err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "player kicked", logger.SessionID(sess.ID), logger.PlayerID(p.ID))
		return p, nil
	})
}
