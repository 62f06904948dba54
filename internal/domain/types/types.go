// Package types contains the read models the game service returns to callers.
package types

import (
	"time"

	"github.com/okian/bingonight/internal/domain/model"
)

// DrawResult describes the ball just drawn.
type DrawResult struct {
	Number     int           `json:"number"`
	Letter     string        `json:"letter"`
	Display    string        `json:"display"`
	DrawnBalls model.IntList `json:"drawnBalls"`
	Remaining  int           `json:"remaining"`
}

// JoinResult is returned to a joining or reconnecting player.
type JoinResult struct {
	Player      *model.Player  `json:"player"`
	Session     *model.Session `json:"session"`
	Reconnected bool           `json:"reconnected"`
}

// QuestionView is a question as pollers see it. CorrectIndex is withheld
// while the question is still running.
type QuestionView struct {
	ID               string               `json:"id"`
	Seq              int64                `json:"seq"`
	Text             string               `json:"text"`
	Options          model.StringList     `json:"options"`
	CorrectIndex     *int                 `json:"correctIndex,omitempty"`
	TimeLimitSeconds int                  `json:"timeLimitSeconds"`
	Points           int                  `json:"points"`
	Status           model.QuestionStatus `json:"status"`
	StartedAt        *time.Time           `json:"startedAt,omitempty"`
	EndsAt           *time.Time           `json:"endsAt,omitempty"`
	RemainingMS      int64                `json:"remainingMs,omitempty"`
}

// NewQuestionView projects q. Timing fields are taken from s when q is the
// session's current question.
func NewQuestionView(q *model.Question, s *model.Session) *QuestionView {
	if q == nil {
		return nil
	}
	v := &QuestionView{
		ID:               q.ID,
		Seq:              q.Seq,
		Text:             q.Text,
		Options:          q.Options.Clone(),
		TimeLimitSeconds: q.TimeLimitSeconds,
		Points:           q.Points,
		Status:           q.Status,
	}
	if !q.Running() {
		idx := q.CorrectIndex
		v.CorrectIndex = &idx
	}
	if s != nil && s.CurrentQuestionID == q.ID {
		v.StartedAt = s.QuestionStartedAt
		v.EndsAt = s.QuestionEndsAt
		v.RemainingMS = s.QuestionRemainingMS
	}
	return v
}

// GameState is the polling snapshot of a session.
type GameState struct {
	Session         *model.Session  `json:"session"`
	Players         []*model.Player `json:"players"`
	Teams           []*model.Team   `json:"teams"`
	CurrentQuestion *QuestionView   `json:"currentQuestion,omitempty"`
	RecentEvents    []*model.Event  `json:"recentEvents"`
	Player          *model.Player   `json:"player,omitempty"`
}

// Stats summarizes the running service.
type Stats struct {
	Sessions      int `json:"sessions"`
	PendingTimers int `json:"pendingTimers"`
	QueueLength   int `json:"queueLength"`
	Workers       int `json:"workers"`
}
