// Package timer keeps cancellable one-shot callbacks keyed by session and
// question on top of a gocron scheduler.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/okian/bingonight/pkg/metrics"
)

// Default registry configuration constants.
const (
	defaultCallbackTimeout = 30 * time.Second
)

// ErrClosed is returned when scheduling on a shut down registry.
var ErrClosed = errors.New("timer registry closed")

// Key identifies a question expiry.
type Key struct {
	SessionID  string
	QuestionID string
}

type entry struct {
	gen   uint64
	jobID uuid.UUID
}

// Registry maps keys to scheduled jobs. Replacing or cancelling a key bumps
// its generation, so a job that already left the scheduler queue still sees
// it is stale and returns without calling back.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]entry
	gen     uint64
	closed  bool

	sched           gocron.Scheduler
	clock           clockwork.Clock
	logger          logger.Logger
	callbackTimeout time.Duration
}

// New creates and starts a registry.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		entries:         make(map[Key]entry),
		clock:           clockwork.NewRealClock(),
		callbackTimeout: defaultCallbackTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("timer")
	}
	sched, err := gocron.NewScheduler(
		gocron.WithClock(r.clock),
		gocron.WithLogger(schedLogger{l: r.logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	r.sched = sched
	r.sched.Start()
	return r, nil
}

// Schedule arms fn to run once after d, replacing any pending callback for
// the same key.
func (r *Registry) Schedule(sessionID, questionID string, d time.Duration, fn func(context.Context) error) error {
	key := Key{SessionID: sessionID, QuestionID: questionID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if old, ok := r.entries[key]; ok {
		r.remove(old.jobID)
	}
	r.gen++
	gen := r.gen

	start := gocron.OneTimeJobStartImmediately()
	if d > 0 {
		start = gocron.OneTimeJobStartDateTime(r.clock.Now().Add(d))
	}
	job, err := r.sched.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(func() { r.fire(key, gen, fn) }),
		gocron.WithName("expire:"+sessionID+":"+questionID),
		gocron.WithTags(sessionID),
	)
	if err != nil {
		delete(r.entries, key)
		r.updatePending()
		return fmt.Errorf("schedule %s/%s: %w", sessionID, questionID, err)
	}
	r.entries[key] = entry{gen: gen, jobID: job.ID()}
	r.updatePending()
	return nil
}

// fire runs fn if key still belongs to generation gen.
func (r *Registry) fire(key Key, gen uint64, fn func(context.Context) error) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	delete(r.entries, key)
	r.updatePending()
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.callbackTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			metrics.RecordTimerError()
			r.logger.Error(ctx, "timer callback panicked",
				logger.SessionID(key.SessionID),
				logger.QuestionID(key.QuestionID),
				logger.Any("panic", rec),
			)
		}
	}()
	if err := fn(ctx); err != nil {
		metrics.RecordTimerError()
		metrics.RecordErrorByComponent("timer", "callback")
		r.logger.Error(ctx, "timer callback failed",
			logger.SessionID(key.SessionID),
			logger.QuestionID(key.QuestionID),
			logger.Error(err),
		)
	}
}

// Cancel drops the pending callback for the key. It reports whether one
// was pending.
func (r *Registry) Cancel(sessionID, questionID string) bool {
	key := Key{SessionID: sessionID, QuestionID: questionID}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return false
	}
	delete(r.entries, key)
	r.remove(e.jobID)
	r.updatePending()
	return true
}

// CancelSession drops every pending callback of the session.
func (r *Registry) CancelSession(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, e := range r.entries {
		if key.SessionID != sessionID {
			continue
		}
		delete(r.entries, key)
		r.remove(e.jobID)
		n++
	}
	r.updatePending()
	return n
}

// CancelAll drops every pending callback.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	for key, e := range r.entries {
		delete(r.entries, key)
		r.remove(e.jobID)
	}
	r.updatePending()
	return n
}

// Pending returns the number of armed callbacks.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Every runs fn on a fixed interval until shutdown.
func (r *Registry) Every(name string, d time.Duration, fn func(context.Context)) error {
	_, err := r.sched.NewJob(
		gocron.DurationJob(d),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.callbackTimeout)
			defer cancel()
			fn(ctx)
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Shutdown cancels everything and stops the scheduler.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.entries = make(map[Key]entry)
	r.updatePending()
	r.mu.Unlock()
	return r.sched.Shutdown()
}

// remove unschedules a job. Callers hold r.mu; a job that already ran is
// gone from the scheduler, which is fine.
func (r *Registry) remove(id uuid.UUID) {
	if err := r.sched.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		r.logger.Warn(context.Background(), "remove job failed", logger.String("job", id.String()), logger.Error(err))
	}
}

// updatePending publishes the pending count. Callers hold r.mu.
func (r *Registry) updatePending() {
	metrics.UpdatePendingTimers(len(r.entries))
}
