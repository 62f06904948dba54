// Package service is the session orchestrator. It composes the game
// components against the store and is what the HTTP API calls.
//
// Every mutating operation runs under a per-session lock. Reads are
// lock-free projections over the store.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	eventqueue "github.com/okian/bingonight/internal/adapters/mq/queue"
	workerpool "github.com/okian/bingonight/internal/adapters/mq/worker"
	repository "github.com/okian/bingonight/internal/adapters/repository"
	"github.com/okian/bingonight/internal/domain/card"
	"github.com/okian/bingonight/internal/domain/dedupe"
	"github.com/okian/bingonight/internal/domain/draw"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/lock"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/prize"
	"github.com/okian/bingonight/internal/domain/round"
	"github.com/okian/bingonight/internal/domain/trivia"
	"github.com/okian/bingonight/pkg/logger"
)

// Default service configuration constants.
const (
	defaultRecentEvents = 20
	defaultQueueSize    = 4096
	defaultWorkerCount  = 2
	defaultMarkerSize   = 50000
)

// Timers is the timer registry the service owns.
type Timers interface {
	trivia.Timers
	CancelAll() int
	Pending() int
}

// Archiver stores a session's event log before it is purged.
type Archiver interface {
	ArchiveSession(ctx context.Context, s *model.Session, events []*model.Event) error
}

// Service implements the game operations.
type Service struct {
	mu sync.Mutex

	store    repository.Store
	timers   Timers
	locker   *lock.Keyed
	archiver Archiver

	cards     *card.Generator
	draws     *draw.Engine
	arbiter   *prize.Arbiter
	questions *trivia.Lifecycle
	rounds    *round.Coordinator

	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	sinks      []workerpool.Sink

	// Configuration
	clock          clockwork.Clock
	recentEvents   int
	questionLimit  time.Duration
	questionPoints int
	markerSize     int
	queueSize      int
	workerCount    int

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service over store. Appended events are also published to
// the outbox, which runs once Start is called.
func New(store repository.Store, timers Timers, opts ...Option) *Service {
	s := &Service{
		timers:         timers,
		locker:         lock.NewKeyed(),
		clock:          clockwork.NewRealClock(),
		recentEvents:   defaultRecentEvents,
		questionLimit:  trivia.DefaultTimeLimitSeconds * time.Second,
		questionPoints: trivia.DefaultPoints,
		markerSize:     defaultMarkerSize,
		queueSize:      defaultQueueSize,
		workerCount:    defaultWorkerCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.cards == nil {
		s.cards = card.NewGenerator()
	}
	if s.draws == nil {
		s.draws = draw.NewEngine()
	}

	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.store = &publishingStore{Store: store, queue: s.eventQueue}

	s.arbiter = prize.NewArbiter(s.store, prize.WithLogger(s.logger.Named("prize")))
	s.questions = trivia.NewLifecycle(s.store, s.timers, s.locker,
		trivia.WithClock(s.clock),
		trivia.WithResolvedMarkers(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.markerSize))),
		trivia.WithDefaultTimeLimit(s.questionLimit),
		trivia.WithDefaultPoints(s.questionPoints),
		trivia.WithLogger(s.logger.Named("trivia")),
	)
	s.rounds = round.NewCoordinator(s.store, s.timers,
		round.WithCardGenerator(s.cards),
		round.WithLogger(s.logger.Named("round")),
	)
	return s
}

// Start runs the outbox workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting game service...")

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.sinks...)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "game service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("sinks", len(s.sinks)),
	)
	return nil
}

// Stop cancels pending timers and drains the outbox.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping game service...")

	cancelled := s.timers.CancelAll()
	var err error
	if s.workerPool != nil {
		err = s.workerPool.Shutdown(ctx)
	}
	s.started = false
	s.logger.Info(ctx, "game service stopped", logger.Int("timersCancelled", cancelled))
	return err
}

// locked loads the session with code, takes its lock, reloads it and runs fn.
func locked[T any](ctx context.Context, s *Service, op, code string, fn func(sess *model.Session) (T, error)) (T, error) {
	var zero T
	sess, err := s.sessionByCode(ctx, code)
	if err != nil {
		return zero, errs.Wrap(op, err)
	}
	unlock := s.locker.Lock(sess.ID)
	defer unlock()

	sess, err = s.store.GetSession(ctx, sess.ID)
	if err != nil {
		return zero, errs.Wrap(op, s.notFound(err, errs.ErrSessionNotFound))
	}
	out, err := fn(sess)
	if err != nil {
		return zero, errs.Wrap(op, err)
	}
	return out, nil
}

// sessionByCode maps a missing record onto ErrSessionNotFound.
func (s *Service) sessionByCode(ctx context.Context, code string) (*model.Session, error) {
	sess, err := s.store.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, s.notFound(err, errs.ErrSessionNotFound)
	}
	return sess, nil
}

// player returns the session's player with id.
func (s *Service) player(ctx context.Context, sess *model.Session, id string) (*model.Player, error) {
	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, s.notFound(err, errs.ErrPlayerNotFound)
	}
	if p.SessionID != sess.ID {
		return nil, errs.ErrPlayerNotFound
	}
	return p, nil
}

// team returns the session's team with id.
func (s *Service) team(ctx context.Context, sess *model.Session, id string) (*model.Team, error) {
	t, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, s.notFound(err, errs.ErrTeamNotFound)
	}
	if t.SessionID != sess.ID {
		return nil, errs.ErrTeamNotFound
	}
	return t, nil
}

// notFound replaces a store miss with the entity-specific condition.
func (s *Service) notFound(err, cond error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return cond
	}
	return err
}

// saveSession stamps and persists sess.
func (s *Service) saveSession(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = s.clock.Now()
	return s.store.SaveSession(ctx, sess)
}

// emit appends an event for the session.
func (s *Service) emit(ctx context.Context, sessionID string, typ model.EventType, payload any) error {
	ev, err := model.NewEvent(sessionID, typ, payload)
	if err != nil {
		return err
	}
	return s.store.AppendEvent(ctx, ev)
}
