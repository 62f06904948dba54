package model

import "time"

// QuestionStatus is the trivia question lifecycle state.
type QuestionStatus string

// Question statuses.
const (
	QuestionInactive QuestionStatus = "inactive"
	QuestionActive   QuestionStatus = "active"
	QuestionPaused   QuestionStatus = "paused"
	QuestionResults  QuestionStatus = "results"
	QuestionEnded    QuestionStatus = "ended"
)

// OptionCount is the number of answer options a question carries.
const OptionCount = 4

// Question is a timed multiple-choice trivia question.
type Question struct {
	ID               string         `json:"id" gorm:"primaryKey;size:36"`
	SessionID        string         `json:"sessionId" gorm:"size:36;not null;index"`
	Seq              int64          `json:"seq" gorm:"not null"`
	Text             string         `json:"text" gorm:"type:text;not null"`
	Options          StringList     `json:"options" gorm:"type:text"`
	CorrectIndex     int            `json:"correctIndex"`
	TimeLimitSeconds int            `json:"timeLimitSeconds"`
	Points           int            `json:"points"`
	Status           QuestionStatus `json:"status" gorm:"size:16;not null"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Clone returns a deep copy.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	c.Options = q.Options.Clone()
	return &c
}

// Running reports whether the question is active or paused.
func (q *Question) Running() bool {
	return q.Status == QuestionActive || q.Status == QuestionPaused
}

// Answer is one player's single response to a question.
type Answer struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	SessionID       string    `json:"sessionId" gorm:"size:36;not null;index"`
	PlayerID        string    `json:"playerId" gorm:"size:36;not null;uniqueIndex:idx_answer_player_question"`
	QuestionID      string    `json:"questionId" gorm:"size:36;not null;uniqueIndex:idx_answer_player_question"`
	SelectedIndex   int       `json:"selectedIndex"`
	IsCorrect       bool      `json:"isCorrect"`
	PointsEarned    int       `json:"pointsEarned"`
	ResponseSeconds float64   `json:"responseTimeSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Clone returns a copy.
func (a *Answer) Clone() *Answer {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
