// Package prize turns validated card marks into claimed prizes.
package prize

import (
	"context"
	"fmt"

	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/win"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/okian/bingonight/pkg/metrics"
)

// Store is the persistence the arbiter needs.
type Store interface {
	// ClaimPrize sets the prize flag if it is still clear and reports
	// whether this call set it.
	ClaimPrize(ctx context.Context, sessionID string, c model.Claim) (bool, error)
	SavePlayer(ctx context.Context, p *model.Player) error
	SaveSession(ctx context.Context, s *model.Session) error
	AppendEvent(ctx context.Context, e *model.Event) error
}

// MarkResult reports the outcome of a marking call.
type MarkResult struct {
	ValidatedCells []int       `json:"validatedCells"`
	HasLine        bool        `json:"hasLine"`
	HasFullCard    bool        `json:"hasFullCard"`
	Lines          []int       `json:"lines,omitempty"`
	WinType        model.Prize `json:"winType,omitempty"`
	Announced      bool        `json:"announced"`
}

// Announcement reports a winner announced by the host.
type Announcement struct {
	WinType  model.Prize `json:"winType"`
	PlayerID string      `json:"playerId"`
	Nickname string      `json:"nickname"`
	Round    int         `json:"round"`
}

// Arbiter validates marks and claims prizes at most once per round.
// Callers serialize calls per session.
type Arbiter struct {
	store  Store
	logger logger.Logger
}

// Option applies a configuration option to the Arbiter.
type Option func(*Arbiter)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Arbiter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewArbiter creates an arbiter backed by store.
func NewArbiter(store Store, opts ...Option) *Arbiter {
	a := &Arbiter{store: store}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("prize")
	}
	return a
}

// Mark validates the requested cells, persists the valid ones and claims
// whatever the session's policy allows. Invalid cells are dropped silently.
func (a *Arbiter) Mark(ctx context.Context, s *model.Session, p *model.Player, cells []int) (MarkResult, error) {
	const op = "prize.Mark"
	if s.Status == model.StatusEnded {
		return MarkResult{}, errs.Wrap(op, errs.ErrSessionEnded)
	}
	if p.SessionID != s.ID {
		return MarkResult{}, errs.Wrap(op, errs.ErrPlayerNotFound)
	}
	if !p.Active() {
		return MarkResult{}, errs.Wrap(op, errs.ErrPlayerKicked)
	}
	if len(p.Card) != model.CardSize {
		return MarkResult{}, errs.WrapKind(op, errs.ErrInvalidState, fmt.Errorf("player %s has no card", p.ID))
	}

	valid := filterMarks(s, p, cells)
	metrics.RecordMarksRejected(len(cells) - len(valid))
	if len(valid) > 0 {
		p.Marked = append(p.Marked.Clone(), valid...)
		if err := a.store.SavePlayer(ctx, p); err != nil {
			return MarkResult{}, errs.Wrap(op, err)
		}
	}

	r := win.EvaluateList(p.Marked)
	out := MarkResult{
		ValidatedCells: valid,
		HasLine:        r.HasLine,
		HasFullCard:    r.HasFullCard,
		Lines:          r.Lines,
	}
	for _, prize := range PolicyFor(s.BingoMode).Claims(s, r) {
		ok, err := a.claim(ctx, s, p, prize)
		if err != nil {
			return out, errs.Wrap(op, err)
		}
		if ok {
			out.WinType = prize
			out.Announced = true
		}
	}
	return out, nil
}

// filterMarks returns the requested cells that may be marked now, in request
// order without duplicates.
func filterMarks(s *model.Session, p *model.Player, cells []int) []int {
	drawn := s.DrawnBalls.Set()
	marked := p.Marked.Set()
	valid := make([]int, 0, len(cells))
	for _, idx := range cells {
		if idx < 0 || idx >= model.CardSize || marked[idx] {
			continue
		}
		if idx != model.FreeCell && !drawn[p.Card[idx]] {
			continue
		}
		marked[idx] = true
		valid = append(valid, idx)
	}
	return valid
}

// AnnounceManual claims prize for p on the host's word. The pattern is not
// verified.
func (a *Arbiter) AnnounceManual(ctx context.Context, s *model.Session, p *model.Player, prize model.Prize) (Announcement, error) {
	const op = "prize.AnnounceManual"
	if !prize.Valid() {
		return Announcement{}, errs.Wrap(op, errs.Invalidf("unknown win type %q", prize))
	}
	if err := checkAnnounce(s, p); err != nil {
		return Announcement{}, errs.Wrap(op, err)
	}
	if s.PrizeClaimed(prize) {
		return Announcement{}, errs.NewKind(op, errs.ErrAlreadyClaimed)
	}
	ok, err := a.claim(ctx, s, p, prize)
	if err != nil {
		return Announcement{}, errs.Wrap(op, err)
	}
	if !ok {
		return Announcement{}, errs.NewKind(op, errs.ErrAlreadyClaimed)
	}
	return announcement(s, p, prize), nil
}

// AnnounceAuto claims the first unclaimed prize for p, line before full card.
// With both taken it announces p as a general winner without awarding a win.
func (a *Arbiter) AnnounceAuto(ctx context.Context, s *model.Session, p *model.Player) (Announcement, error) {
	const op = "prize.AnnounceAuto"
	if err := checkAnnounce(s, p); err != nil {
		return Announcement{}, errs.Wrap(op, err)
	}
	for _, prize := range []model.Prize{model.PrizeLine, model.PrizeFullCard} {
		if s.PrizeClaimed(prize) {
			continue
		}
		ok, err := a.claim(ctx, s, p, prize)
		if err != nil {
			return Announcement{}, errs.Wrap(op, err)
		}
		if ok {
			return announcement(s, p, prize), nil
		}
	}

	s.Status = model.StatusWinnerAnnounced
	s.WinnerNickname = p.Nickname
	if err := a.store.SaveSession(ctx, s); err != nil {
		return Announcement{}, errs.Wrap(op, err)
	}
	if err := a.emit(ctx, s, p, model.WinGeneral); err != nil {
		return Announcement{}, errs.Wrap(op, err)
	}
	return announcement(s, p, model.WinGeneral), nil
}

func checkAnnounce(s *model.Session, p *model.Player) error {
	if s.Status == model.StatusEnded {
		return errs.ErrSessionEnded
	}
	if p.SessionID != s.ID {
		return errs.ErrPlayerNotFound
	}
	return nil
}

// claim runs the store compare-and-set and, when it wins, records the claim
// on s and p and emits winner_announced.
func (a *Arbiter) claim(ctx context.Context, s *model.Session, p *model.Player, prize model.Prize) (bool, error) {
	c := model.Claim{Prize: prize, PlayerID: p.ID, Nickname: p.Nickname}
	ok, err := a.store.ClaimPrize(ctx, s.ID, c)
	if err != nil {
		return false, err
	}
	if !ok {
		metrics.RecordClaimConflict(string(prize))
		a.logger.Debug(ctx, "prize already claimed",
			logger.SessionID(s.ID),
			logger.PlayerID(p.ID),
			logger.String("winType", string(prize)),
		)
		s.MarkClaimed(prize)
		return false, nil
	}
	s.ApplyClaim(c)
	if prize == model.PrizeFullCard {
		p.Wins++
		if err := a.store.SavePlayer(ctx, p); err != nil {
			return true, err
		}
	}
	metrics.RecordPrizeClaimed(string(prize))
	a.logger.Info(ctx, "prize claimed",
		logger.SessionID(s.ID),
		logger.PlayerID(p.ID),
		logger.String("winType", string(prize)),
		logger.Int("round", s.RoundNumber),
	)
	return true, a.emit(ctx, s, p, prize)
}

func (a *Arbiter) emit(ctx context.Context, s *model.Session, p *model.Player, prize model.Prize) error {
	ev, err := model.NewEvent(s.ID, model.EventWinnerAnnounced, model.WinnerPayload{
		WinType:  prize,
		PlayerID: p.ID,
		Nickname: p.Nickname,
		Round:    s.RoundNumber,
	})
	if err != nil {
		return err
	}
	return a.store.AppendEvent(ctx, ev)
}

func announcement(s *model.Session, p *model.Player, prize model.Prize) Announcement {
	return Announcement{WinType: prize, PlayerID: p.ID, Nickname: p.Nickname, Round: s.RoundNumber}
}
