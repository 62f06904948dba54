// Package round advances bingo rounds and deals cards.
package round

import (
	"context"

	"github.com/okian/bingonight/internal/domain/card"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/okian/bingonight/pkg/metrics"
)

// Store is the persistence the coordinator needs.
type Store interface {
	SaveSession(ctx context.Context, s *model.Session) error
	ListPlayers(ctx context.Context, sessionID string) ([]*model.Player, error)
	SavePlayer(ctx context.Context, p *model.Player) error
	AppendEvent(ctx context.Context, e *model.Event) error
}

// Timers cancels pending question expiries.
type Timers interface {
	CancelSession(sessionID string) int
}

// Result summarizes a round advance.
type Result struct {
	Round          int    `json:"round"`
	PreviousWinner string `json:"previousWinner,omitempty"`
	PlayersDealt   int    `json:"playersDealt"`
}

// Coordinator owns round transitions. Callers hold the session lock.
type Coordinator struct {
	store  Store
	timers Timers
	cards  *card.Generator
	logger logger.Logger
}

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithCardGenerator sets the generator used to deal cards.
func WithCardGenerator(g *card.Generator) Option {
	return func(c *Coordinator) {
		if g != nil {
			c.cards = g
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a coordinator.
func NewCoordinator(store Store, timers Timers, opts ...Option) *Coordinator {
	c := &Coordinator{store: store, timers: timers}
	for _, opt := range opts {
		opt(c)
	}
	if c.cards == nil {
		c.cards = card.NewGenerator()
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("round")
	}
	return c
}

// Deal gives p a fresh card and clears its marks.
func (c *Coordinator) Deal(p *model.Player) {
	p.Card = c.cards.Generate().List()
	p.Marked = model.IntList{}
}

// EndRound resets the session's bingo state, deals every active player a new
// card and moves to the next round.
func (c *Coordinator) EndRound(ctx context.Context, s *model.Session) (Result, error) {
	const op = "round.EndRound"
	if s.Status == model.StatusEnded {
		return Result{}, errs.Wrap(op, errs.ErrSessionEnded)
	}
	if s.RoundNumber >= s.MaxRounds {
		return Result{}, errs.Wrap(op, errs.ErrRoundLimitReached)
	}
	c.timers.CancelSession(s.ID)

	s.PreviousRoundWinner = s.WinnerNickname
	s.Status = model.StatusWaiting
	s.CurrentBall = nil
	s.DrawnBalls = model.IntList{}
	s.LinePrizeClaimed = false
	s.FullCardPrizeClaimed = false
	s.LineWinnerID = ""
	s.FullCardWinnerID = ""
	s.WinnerNickname = ""
	s.RoundNumber++
	if err := c.store.SaveSession(ctx, s); err != nil {
		return Result{}, errs.Wrap(op, err)
	}

	players, err := c.store.ListPlayers(ctx, s.ID)
	if err != nil {
		return Result{}, errs.Wrap(op, err)
	}
	dealt := 0
	for _, p := range players {
		if !p.Active() {
			continue
		}
		c.Deal(p)
		if err := c.store.SavePlayer(ctx, p); err != nil {
			return Result{}, errs.Wrap(op, err)
		}
		if err := c.emit(ctx, s.ID, model.EventCardAssigned, map[string]any{
			"playerId":    p.ID,
			"round":       s.RoundNumber,
			"fingerprint": card.Fingerprint(p.Card),
		}); err != nil {
			return Result{}, errs.Wrap(op, err)
		}
		dealt++
	}

	res := Result{Round: s.RoundNumber, PreviousWinner: s.PreviousRoundWinner, PlayersDealt: dealt}
	if err := c.emit(ctx, s.ID, model.EventRoundEnded, res); err != nil {
		return Result{}, errs.Wrap(op, err)
	}
	metrics.RecordRoundEnded()
	c.logger.Info(ctx, "round ended",
		logger.SessionID(s.ID),
		logger.Int("round", s.RoundNumber),
		logger.Int("players", dealt),
	)
	return res, nil
}

func (c *Coordinator) emit(ctx context.Context, sessionID string, typ model.EventType, payload any) error {
	ev, err := model.NewEvent(sessionID, typ, payload)
	if err != nil {
		return err
	}
	return c.store.AppendEvent(ctx, ev)
}
