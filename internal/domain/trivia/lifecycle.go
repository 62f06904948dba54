// Package trivia runs timed multiple-choice questions.
//
// A question moves inactive -> active -> {paused <-> active} -> results ->
// ended. While active it carries a one-shot expiry timer. The timer and a host
// End race to resolve the question; both consult a shared marker set keyed by
// the question so exactly one of them produces the results snapshot.
package trivia

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okian/bingonight/internal/domain/dedupe"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/lock"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/internal/domain/scoring"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/okian/bingonight/pkg/metrics"
)

// Store is the persistence the lifecycle needs. Missing records are reported
// with errors matching errs.ErrNotFound and unique violations with
// errs.ErrDuplicate.
type Store interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, s *model.Session) error
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	ListQuestions(ctx context.Context, sessionID string) ([]*model.Question, error)
	CreateQuestion(ctx context.Context, q *model.Question) error
	SaveQuestion(ctx context.Context, q *model.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	CreateAnswer(ctx context.Context, a *model.Answer) error
	ListAnswers(ctx context.Context, questionID string) ([]*model.Answer, error)
	ListPlayers(ctx context.Context, sessionID string) ([]*model.Player, error)
	SavePlayer(ctx context.Context, p *model.Player) error
	AppendEvent(ctx context.Context, e *model.Event) error
}

// Timers schedules cancellable one-shot callbacks keyed by session and question.
type Timers interface {
	Schedule(sessionID, questionID string, after time.Duration, fn func(context.Context) error) error
	Cancel(sessionID, questionID string) bool
	CancelSession(sessionID string) int
}

// AnswerResult is returned to the answering player.
type AnswerResult struct {
	IsCorrect           bool    `json:"isCorrect"`
	PointsEarned        int     `json:"pointsEarned"`
	ResponseTimeSeconds float64 `json:"responseTimeSeconds"`
}

// Lifecycle drives questions through their states. Callers hold the session
// lock around every method; expiry callbacks take it themselves.
type Lifecycle struct {
	store    Store
	timers   Timers
	locker   lock.Locker
	clock    clockwork.Clock
	resolved dedupe.Deduper
	scorer   scoring.Scorer
	logger   logger.Logger

	defaultLimit  int
	defaultPoints int
}

// NewLifecycle creates a lifecycle. locker must be the same locker the
// caller uses to serialize session operations.
func NewLifecycle(store Store, timers Timers, locker lock.Locker, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		store:         store,
		timers:        timers,
		locker:        locker,
		clock:         clockwork.NewRealClock(),
		defaultLimit:  DefaultTimeLimitSeconds,
		defaultPoints: DefaultPoints,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.resolved == nil {
		l.resolved = dedupe.NewInMemoryDeduper()
	}
	if l.scorer == nil {
		l.scorer = scoring.NewTimeBonusScorer(scoring.WithDefaultBasePoints(l.defaultPoints))
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("trivia")
	}
	return l
}

// resolution is the marker key of a question activation. A question leaves
// inactive at most once, so its id is enough.
func resolution(questionID string) string { return "question:" + questionID }

// Start activates questionID and arms its expiry timer. A different question
// still running is resolved first.
func (l *Lifecycle) Start(ctx context.Context, s *model.Session, questionID string) (*model.Question, error) {
	const op = "trivia.Start"
	if s.Status == model.StatusEnded {
		return nil, errs.Wrap(op, errs.ErrSessionEnded)
	}
	q, err := l.question(ctx, s, questionID)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	if q.Status != model.QuestionInactive {
		return nil, errs.Wrap(op, errs.Statef("question is %s", q.Status))
	}
	if err := l.supersede(ctx, s); err != nil {
		return nil, errs.Wrap(op, err)
	}

	limit := time.Duration(q.TimeLimitSeconds) * time.Second
	now := l.clock.Now()
	ends := now.Add(limit)
	q.Status = model.QuestionActive
	if err := l.store.SaveQuestion(ctx, q); err != nil {
		return nil, errs.Wrap(op, err)
	}
	s.CurrentQuestionID = q.ID
	s.QuestionStartedAt = &now
	s.QuestionEndsAt = &ends
	s.QuestionRemainingMS = 0
	if err := l.store.SaveSession(ctx, s); err != nil {
		return nil, errs.Wrap(op, err)
	}
	if err := l.arm(s.ID, q.ID, limit); err != nil {
		return nil, errs.Wrap(op, err)
	}
	if err := l.emit(ctx, s.ID, model.EventQuestionStarted, map[string]any{
		"questionId":       q.ID,
		"text":             q.Text,
		"options":          q.Options,
		"timeLimitSeconds": q.TimeLimitSeconds,
		"points":           q.Points,
		"endsAt":           ends,
	}); err != nil {
		return nil, errs.Wrap(op, err)
	}
	l.logger.Info(ctx, "question started",
		logger.SessionID(s.ID),
		logger.QuestionID(q.ID),
		logger.Duration("limit", limit),
	)
	return q, nil
}

// supersede resolves the session's current question if it is still running.
func (l *Lifecycle) supersede(ctx context.Context, s *model.Session) error {
	if s.CurrentQuestionID == "" {
		return nil
	}
	prev, err := l.question(ctx, s, s.CurrentQuestionID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !prev.Running() {
		return nil
	}
	l.timers.Cancel(s.ID, prev.ID)
	if l.resolved.SeenAndRecord(ctx, resolution(prev.ID)) {
		return nil
	}
	_, err = l.resolve(ctx, s, prev, false)
	if err != nil {
		l.resolved.Unrecord(ctx, resolution(prev.ID))
	}
	return err
}

// arm schedules the expiry callback for a running question.
func (l *Lifecycle) arm(sessionID, questionID string, after time.Duration) error {
	return l.timers.Schedule(sessionID, questionID, after, func(ctx context.Context) error {
		return l.Expire(ctx, sessionID, questionID)
	})
}

// Expire resolves a question whose timer fired. It is a no-op when the
// question is no longer the session's active one or was already resolved.
func (l *Lifecycle) Expire(ctx context.Context, sessionID, questionID string) error {
	const op = "trivia.Expire"
	unlock := l.locker.Lock(sessionID)
	defer unlock()

	s, err := l.store.GetSession(ctx, sessionID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errs.Wrap(op, err)
	}
	if s.CurrentQuestionID != questionID {
		l.logger.Debug(ctx, "stale question timer", logger.SessionID(sessionID), logger.QuestionID(questionID))
		return nil
	}
	q, err := l.question(ctx, s, questionID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errs.Wrap(op, err)
	}
	if q.Status != model.QuestionActive {
		return nil
	}
	if l.resolved.SeenAndRecord(ctx, resolution(q.ID)) {
		return nil
	}
	if _, err := l.resolve(ctx, s, q, true); err != nil {
		l.resolved.Unrecord(ctx, resolution(q.ID))
		return errs.Wrap(op, err)
	}
	metrics.RecordQuestionExpired()
	l.logger.Info(ctx, "question expired", logger.SessionID(sessionID), logger.QuestionID(questionID))
	return nil
}

// PauseOrResume toggles the current question between active and paused and
// returns its new status.
func (l *Lifecycle) PauseOrResume(ctx context.Context, s *model.Session) (model.QuestionStatus, error) {
	const op = "trivia.PauseOrResume"
	q, err := l.current(ctx, s)
	if err != nil {
		return "", errs.Wrap(op, err)
	}
	now := l.clock.Now()
	limit := time.Duration(q.TimeLimitSeconds) * time.Second

	switch q.Status {
	case model.QuestionActive:
		l.timers.Cancel(s.ID, q.ID)
		remaining := limit
		if s.QuestionEndsAt != nil {
			remaining = s.QuestionEndsAt.Sub(now)
		}
		if remaining < 0 {
			remaining = 0
		}
		q.Status = model.QuestionPaused
		s.QuestionRemainingMS = remaining.Milliseconds()
		if err := l.save(ctx, s, q); err != nil {
			return "", errs.Wrap(op, err)
		}
		err = l.emit(ctx, s.ID, model.EventQuestionPaused, map[string]any{
			"questionId":  q.ID,
			"remainingMs": s.QuestionRemainingMS,
		})
	case model.QuestionPaused:
		remaining := time.Duration(s.QuestionRemainingMS) * time.Millisecond
		ends := now.Add(remaining)
		started := ends.Add(-limit)
		q.Status = model.QuestionActive
		s.QuestionEndsAt = &ends
		s.QuestionStartedAt = &started
		s.QuestionRemainingMS = 0
		if err := l.save(ctx, s, q); err != nil {
			return "", errs.Wrap(op, err)
		}
		if err := l.arm(s.ID, q.ID, remaining); err != nil {
			return "", errs.Wrap(op, err)
		}
		err = l.emit(ctx, s.ID, model.EventQuestionResumed, map[string]any{
			"questionId": q.ID,
			"endsAt":     ends,
		})
	default:
		return "", errs.Wrap(op, errs.Statef("question is %s", q.Status))
	}
	if err != nil {
		return "", errs.Wrap(op, err)
	}
	return q.Status, nil
}

// End forces the current question to results and returns the snapshot.
func (l *Lifecycle) End(ctx context.Context, s *model.Session) (model.ResultsPayload, error) {
	const op = "trivia.End"
	q, err := l.current(ctx, s)
	if err != nil {
		return model.ResultsPayload{}, errs.Wrap(op, err)
	}
	if !q.Running() {
		return model.ResultsPayload{}, errs.Wrap(op, errs.Statef("question is %s", q.Status))
	}
	l.timers.Cancel(s.ID, q.ID)
	if l.resolved.SeenAndRecord(ctx, resolution(q.ID)) {
		return model.ResultsPayload{}, errs.Wrap(op, errs.Statef("question already resolved"))
	}
	res, err := l.resolve(ctx, s, q, false)
	if err != nil {
		l.resolved.Unrecord(ctx, resolution(q.ID))
		return model.ResultsPayload{}, errs.Wrap(op, err)
	}
	return res, nil
}

// Next starts the first inactive question in creation order.
func (l *Lifecycle) Next(ctx context.Context, s *model.Session) (*model.Question, error) {
	qs, err := l.store.ListQuestions(ctx, s.ID)
	if err != nil {
		return nil, errs.Wrap("trivia.Next", err)
	}
	for _, q := range qs {
		if q.Status == model.QuestionInactive {
			return l.Start(ctx, s, q.ID)
		}
	}
	return nil, errs.Wrap("trivia.Next", errs.ErrNoMoreQuestions)
}

// EndQuiz ends every question of the session and clears its current pointer.
func (l *Lifecycle) EndQuiz(ctx context.Context, s *model.Session) error {
	const op = "trivia.EndQuiz"
	l.timers.CancelSession(s.ID)
	qs, err := l.store.ListQuestions(ctx, s.ID)
	if err != nil {
		return errs.Wrap(op, err)
	}
	for _, q := range qs {
		if q.Status == model.QuestionEnded {
			continue
		}
		if q.Running() {
			l.resolved.SeenAndRecord(ctx, resolution(q.ID))
		}
		q.Status = model.QuestionEnded
		if err := l.store.SaveQuestion(ctx, q); err != nil {
			return errs.Wrap(op, err)
		}
	}
	clearCurrent(s)
	if err := l.store.SaveSession(ctx, s); err != nil {
		return errs.Wrap(op, err)
	}
	if err := l.emit(ctx, s.ID, model.EventQuizEnded, map[string]any{"questions": len(qs)}); err != nil {
		return errs.Wrap(op, err)
	}
	l.logger.Info(ctx, "quiz ended", logger.SessionID(s.ID), logger.Int("questions", len(qs)))
	return nil
}

// CancelTimers drops every pending expiry of the session.
func (l *Lifecycle) CancelTimers(s *model.Session) int {
	return l.timers.CancelSession(s.ID)
}

// SubmitAnswer records p's single answer to the current question.
func (l *Lifecycle) SubmitAnswer(ctx context.Context, s *model.Session, p *model.Player, questionID string, index int) (AnswerResult, error) {
	const op = "trivia.SubmitAnswer"
	if index < 0 || index >= model.OptionCount {
		return AnswerResult{}, errs.Wrap(op, errs.Invalidf("answer index %d out of range", index))
	}
	if p.SessionID != s.ID {
		return AnswerResult{}, errs.Wrap(op, errs.ErrPlayerNotFound)
	}
	if !p.Active() {
		return AnswerResult{}, errs.Wrap(op, errs.ErrPlayerKicked)
	}
	q, err := l.question(ctx, s, questionID)
	if err != nil {
		return AnswerResult{}, errs.Wrap(op, err)
	}
	limit := time.Duration(q.TimeLimitSeconds) * time.Second
	if ranOut(s, q, limit, l.clock.Now()) {
		return AnswerResult{}, errs.NewKind(op, errs.ErrTimeExpired)
	}
	if s.CurrentQuestionID != q.ID || q.Status != model.QuestionActive || s.QuestionStartedAt == nil {
		return AnswerResult{}, errs.Wrap(op, errs.Statef("question is not accepting answers"))
	}

	elapsed := l.clock.Since(*s.QuestionStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit {
		return AnswerResult{}, errs.NewKind(op, errs.ErrTimeExpired)
	}
	correct := index == q.CorrectIndex
	score, err := l.scorer.Score(ctx, scoring.Input{
		BasePoints: q.Points,
		TimeLimit:  limit,
		Elapsed:    elapsed,
		Correct:    correct,
	})
	if err != nil {
		return AnswerResult{}, errs.Wrap(op, err)
	}

	a := &model.Answer{
		ID:              uuid.NewString(),
		SessionID:       s.ID,
		PlayerID:        p.ID,
		QuestionID:      q.ID,
		SelectedIndex:   index,
		IsCorrect:       correct,
		PointsEarned:    score.Points,
		ResponseSeconds: elapsed.Seconds(),
		CreatedAt:       l.clock.Now(),
	}
	if err := l.store.CreateAnswer(ctx, a); err != nil {
		if errors.Is(err, errs.ErrDuplicate) {
			return AnswerResult{}, errs.NewKind(op, errs.ErrAlreadyAnswered)
		}
		return AnswerResult{}, errs.Wrap(op, err)
	}
	if score.Points > 0 {
		p.TriviaPoints += score.Points
		if err := l.store.SavePlayer(ctx, p); err != nil {
			return AnswerResult{}, errs.Wrap(op, err)
		}
	}
	metrics.RecordAnswer(correct)
	if err := l.emit(ctx, s.ID, model.EventAnswerSubmitted, map[string]any{
		"playerId":     p.ID,
		"questionId":   q.ID,
		"isCorrect":    correct,
		"pointsEarned": score.Points,
	}); err != nil {
		return AnswerResult{}, errs.Wrap(op, err)
	}
	return AnswerResult{
		IsCorrect:           correct,
		PointsEarned:        score.Points,
		ResponseTimeSeconds: a.ResponseSeconds,
	}, nil
}

// Results builds the answer snapshot of a question without changing it.
func (l *Lifecycle) Results(ctx context.Context, s *model.Session, questionID string) (model.ResultsPayload, error) {
	q, err := l.question(ctx, s, questionID)
	if err != nil {
		return model.ResultsPayload{}, errs.Wrap("trivia.Results", err)
	}
	res, err := l.snapshot(ctx, s, q)
	if err != nil {
		return model.ResultsPayload{}, errs.Wrap("trivia.Results", err)
	}
	return res, nil
}

// ranOut reports whether q is the session's current question and went to
// results because its full time limit elapsed. A question ended by the host
// has its end moved to the moment it was ended, so it never counts.
func ranOut(s *model.Session, q *model.Question, limit time.Duration, now time.Time) bool {
	if s.CurrentQuestionID != q.ID || q.Status != model.QuestionResults {
		return false
	}
	if s.QuestionStartedAt == nil || s.QuestionEndsAt == nil {
		return false
	}
	return s.QuestionEndsAt.Sub(*s.QuestionStartedAt) >= limit && !now.Before(*s.QuestionEndsAt)
}

// current loads the session's current question.
func (l *Lifecycle) current(ctx context.Context, s *model.Session) (*model.Question, error) {
	if s.CurrentQuestionID == "" {
		return nil, errs.ErrNoCurrentQuestion
	}
	q, err := l.question(ctx, s, s.CurrentQuestionID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrNoCurrentQuestion
	}
	return q, err
}

// resolve moves q to results and emits the snapshot. The caller owns the
// resolution marker.
func (l *Lifecycle) resolve(ctx context.Context, s *model.Session, q *model.Question, expired bool) (model.ResultsPayload, error) {
	q.Status = model.QuestionResults
	s.QuestionRemainingMS = 0
	if !expired {
		now := l.clock.Now()
		s.QuestionEndsAt = &now
	}
	if err := l.save(ctx, s, q); err != nil {
		return model.ResultsPayload{}, err
	}
	res, err := l.snapshot(ctx, s, q)
	if err != nil {
		return model.ResultsPayload{}, err
	}
	res.Expired = expired
	if err := l.emit(ctx, s.ID, model.EventQuestionResults, res); err != nil {
		return model.ResultsPayload{}, err
	}
	return res, nil
}

func (l *Lifecycle) snapshot(ctx context.Context, s *model.Session, q *model.Question) (model.ResultsPayload, error) {
	answers, err := l.store.ListAnswers(ctx, q.ID)
	if err != nil {
		return model.ResultsPayload{}, err
	}
	players, err := l.store.ListPlayers(ctx, s.ID)
	if err != nil {
		return model.ResultsPayload{}, err
	}
	nick := make(map[string]string, len(players))
	for _, p := range players {
		nick[p.ID] = p.Nickname
	}
	res := model.ResultsPayload{
		QuestionID:   q.ID,
		CorrectIndex: q.CorrectIndex,
		Results:      make([]model.ResultEntry, 0, len(answers)),
	}
	for _, a := range answers {
		res.Results = append(res.Results, model.ResultEntry{
			PlayerID:        a.PlayerID,
			Nickname:        nick[a.PlayerID],
			SelectedIndex:   a.SelectedIndex,
			IsCorrect:       a.IsCorrect,
			PointsEarned:    a.PointsEarned,
			ResponseSeconds: a.ResponseSeconds,
		})
	}
	return res, nil
}

func (l *Lifecycle) save(ctx context.Context, s *model.Session, q *model.Question) error {
	if err := l.store.SaveQuestion(ctx, q); err != nil {
		return err
	}
	return l.store.SaveSession(ctx, s)
}

func (l *Lifecycle) emit(ctx context.Context, sessionID string, typ model.EventType, payload any) error {
	ev, err := model.NewEvent(sessionID, typ, payload)
	if err != nil {
		return err
	}
	return l.store.AppendEvent(ctx, ev)
}
