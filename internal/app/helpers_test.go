package service_test

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	repository "github.com/okian/bingonight/internal/adapters/repository"
	service "github.com/okian/bingonight/internal/app"
	"github.com/okian/bingonight/internal/domain/card"
	"github.com/okian/bingonight/internal/domain/draw"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/win"
	"github.com/okian/bingonight/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type timerKey struct{ session, question string }

// fakeTimers records scheduled callbacks; tests fire them by hand.
type fakeTimers struct {
	mu  sync.Mutex
	fns map[timerKey]func(context.Context) error
	dur map[timerKey]time.Duration
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{
		fns: make(map[timerKey]func(context.Context) error),
		dur: make(map[timerKey]time.Duration),
	}
}

func (f *fakeTimers) Schedule(sessionID, questionID string, after time.Duration, fn func(context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := timerKey{sessionID, questionID}
	f.fns[k] = fn
	f.dur[k] = after
	return nil
}

func (f *fakeTimers) Cancel(sessionID, questionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := timerKey{sessionID, questionID}
	_, ok := f.fns[k]
	delete(f.fns, k)
	return ok
}

func (f *fakeTimers) CancelSession(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.fns {
		if k.session == sessionID {
			delete(f.fns, k)
			n++
		}
	}
	return n
}

func (f *fakeTimers) CancelAll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.fns)
	f.fns = make(map[timerKey]func(context.Context) error)
	return n
}

func (f *fakeTimers) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fns)
}

// callback returns the armed callback for the key, if any.
func (f *fakeTimers) callback(sessionID, questionID string) func(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fns[timerKey{sessionID, questionID}]
}

// fakeArchiver counts archived sessions, or fails with err when set.
type fakeArchiver struct {
	mu       sync.Mutex
	sessions map[string]int
	err      error
}

func (a *fakeArchiver) ArchiveSession(_ context.Context, s *model.Session, events []*model.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.sessions == nil {
		a.sessions = make(map[string]int)
	}
	a.sessions[s.Code] = len(events)
	return nil
}

type fixture struct {
	ctx    context.Context
	clock  *clockwork.FakeClock
	store  *repository.MemoryStore
	timers *fakeTimers
	svc    *service.Service
}

func newFixture(opts ...service.Option) *fixture {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC))
	store := repository.NewMemoryStore(repository.WithClock(clock))
	timers := newFakeTimers()
	base := []service.Option{
		service.WithClock(clock),
		service.WithCardGenerator(card.NewGenerator(card.WithRand(rand.New(rand.NewSource(7))))),
		service.WithDrawEngine(draw.NewEngine(draw.WithRand(rand.New(rand.NewSource(11))))),
	}
	return &fixture{
		ctx:    context.Background(),
		clock:  clock,
		store:  store,
		timers: timers,
		svc:    service.New(store, timers, append(base, opts...)...),
	}
}

// markableLine returns the first pattern whose cells are all free or drawn.
func markableLine(p *model.Player, drawn model.IntList) ([]int, bool) {
	set := drawn.Set()
	for _, pattern := range win.Patterns {
		ok := true
		for _, idx := range pattern {
			if idx != model.FreeCell && !set[p.Card[idx]] {
				ok = false
				break
			}
		}
		if ok {
			return pattern[:], true
		}
	}
	return nil, false
}

func allCells() []int {
	out := make([]int, model.CardSize)
	for i := range out {
		out[i] = i
	}
	return out
}
