package trivia

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
	"github.com/okian/bingonight/pkg/logger"
)

// Question time limits, in seconds.
const (
	MinTimeLimitSeconds     = 5
	MaxTimeLimitSeconds     = 300
	DefaultTimeLimitSeconds = 30
	DefaultPoints           = 10
)

// QuestionInput carries host-provided question fields. Zero TimeLimitSeconds
// and Points take the configured defaults.
type QuestionInput struct {
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	CorrectIndex     int      `json:"correctIndex"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	Points           int      `json:"points"`
}

func (l *Lifecycle) normalize(in QuestionInput) (QuestionInput, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return in, errs.Invalidf("question text is required")
	}
	if len(in.Options) != model.OptionCount {
		return in, errs.Invalidf("question needs %d options, got %d", model.OptionCount, len(in.Options))
	}
	opts := make([]string, len(in.Options))
	for i, o := range in.Options {
		opts[i] = strings.TrimSpace(o)
		if opts[i] == "" {
			return in, errs.Invalidf("option %d is empty", i)
		}
	}
	in.Options = opts
	if in.CorrectIndex < 0 || in.CorrectIndex >= model.OptionCount {
		return in, errs.Invalidf("correct index %d out of range", in.CorrectIndex)
	}
	if in.TimeLimitSeconds == 0 {
		in.TimeLimitSeconds = l.defaultLimit
	}
	if in.TimeLimitSeconds < MinTimeLimitSeconds || in.TimeLimitSeconds > MaxTimeLimitSeconds {
		return in, errs.Invalidf("time limit must be %d-%d seconds", MinTimeLimitSeconds, MaxTimeLimitSeconds)
	}
	if in.Points == 0 {
		in.Points = l.defaultPoints
	}
	if in.Points < 1 {
		return in, errs.Invalidf("points must be positive")
	}
	return in, nil
}

// AddQuestion appends a question to the session's quiz.
func (l *Lifecycle) AddQuestion(ctx context.Context, s *model.Session, in QuestionInput) (*model.Question, error) {
	const op = "trivia.AddQuestion"
	in, err := l.normalize(in)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	qs, err := l.store.ListQuestions(ctx, s.ID)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	var seq int64
	for _, q := range qs {
		if q.Seq > seq {
			seq = q.Seq
		}
	}
	q := &model.Question{
		ID:               uuid.NewString(),
		SessionID:        s.ID,
		Seq:              seq + 1,
		Text:             in.Text,
		Options:          model.StringList(in.Options),
		CorrectIndex:     in.CorrectIndex,
		TimeLimitSeconds: in.TimeLimitSeconds,
		Points:           in.Points,
		Status:           model.QuestionInactive,
		CreatedAt:        l.clock.Now(),
	}
	if err := l.store.CreateQuestion(ctx, q); err != nil {
		return nil, errs.Wrap(op, err)
	}
	l.logger.Debug(ctx, "question added", logger.SessionID(s.ID), logger.QuestionID(q.ID))
	return q, nil
}

// UpdateQuestion replaces the fields of a question that is not running.
func (l *Lifecycle) UpdateQuestion(ctx context.Context, s *model.Session, id string, in QuestionInput) (*model.Question, error) {
	const op = "trivia.UpdateQuestion"
	q, err := l.question(ctx, s, id)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	if q.Running() {
		return nil, errs.Wrap(op, errs.ErrQuestionBusy)
	}
	in, err = l.normalize(in)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	q.Text = in.Text
	q.Options = model.StringList(in.Options)
	q.CorrectIndex = in.CorrectIndex
	q.TimeLimitSeconds = in.TimeLimitSeconds
	q.Points = in.Points
	if err := l.store.SaveQuestion(ctx, q); err != nil {
		return nil, errs.Wrap(op, err)
	}
	return q, nil
}

// DeleteQuestion removes a question that is not running, with its answers.
func (l *Lifecycle) DeleteQuestion(ctx context.Context, s *model.Session, id string) error {
	const op = "trivia.DeleteQuestion"
	q, err := l.question(ctx, s, id)
	if err != nil {
		return errs.Wrap(op, err)
	}
	if q.Running() {
		return errs.Wrap(op, errs.ErrQuestionBusy)
	}
	if err := l.store.DeleteQuestion(ctx, q.ID); err != nil {
		return errs.Wrap(op, err)
	}
	if s.CurrentQuestionID == q.ID {
		clearCurrent(s)
		if err := l.store.SaveSession(ctx, s); err != nil {
			return errs.Wrap(op, err)
		}
	}
	return nil
}

// Questions lists the session's questions in creation order.
func (l *Lifecycle) Questions(ctx context.Context, s *model.Session) ([]*model.Question, error) {
	qs, err := l.store.ListQuestions(ctx, s.ID)
	if err != nil {
		return nil, errs.Wrap("trivia.Questions", err)
	}
	return qs, nil
}

// question loads id and checks it belongs to s.
func (l *Lifecycle) question(ctx context.Context, s *model.Session, id string) (*model.Question, error) {
	q, err := l.store.GetQuestion(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	if q.SessionID != s.ID {
		return nil, errs.ErrQuestionNotFound
	}
	return q, nil
}

func clearCurrent(s *model.Session) {
	s.CurrentQuestionID = ""
	s.QuestionStartedAt = nil
	s.QuestionEndsAt = nil
	s.QuestionRemainingMS = 0
}
