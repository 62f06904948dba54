package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// EventType tags an audit event.
type EventType string

// Event types.
const (
	EventSessionCreated    EventType = "session_created"
	EventGameStarted       EventType = "game_started"
	EventGamePaused        EventType = "game_paused"
	EventGameEnded         EventType = "game_ended"
	EventModeSwitched      EventType = "mode_switched"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerReconnected EventType = "player_reconnected"
	EventPlayerKicked      EventType = "player_kicked"
	EventBallDrawn         EventType = "ball_drawn"
	EventWinnerAnnounced   EventType = "winner_announced"
	EventRoundEnded        EventType = "round_ended"
	EventCardAssigned      EventType = "card_assigned"
	EventTeamCreated       EventType = "team_created"
	EventTeamUpdated       EventType = "team_updated"
	EventTeamDeleted       EventType = "team_deleted"
	EventQuestionStarted   EventType = "question_started"
	EventQuestionPaused    EventType = "question_paused"
	EventQuestionResumed   EventType = "question_resumed"
	EventQuestionResults   EventType = "question_results"
	EventQuizEnded         EventType = "quiz_ended"
	EventAnswerSubmitted   EventType = "answer_submitted"
)

// Event is an append-only audit record. Pollers observe the game through it.
type Event struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	SessionID string         `json:"sessionId" gorm:"size:36;not null;index"`
	Seq       int64          `json:"seq" gorm:"not null;index"`
	Type      EventType      `json:"type" gorm:"size:32;not null;index"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewEvent builds an event with a JSON-encoded payload. ID, Seq and CreatedAt
// are filled in by the store.
func NewEvent(sessionID string, typ EventType, payload any) (*Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return &Event{SessionID: sessionID, Type: typ, Payload: datatypes.JSON(b)}, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Payload != nil {
		c.Payload = make(datatypes.JSON, len(e.Payload))
		copy(c.Payload, e.Payload)
	}
	return &c
}

// WinnerPayload is carried by winner_announced events.
type WinnerPayload struct {
	WinType  Prize  `json:"winType"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Round    int    `json:"round"`
}

// BallPayload is carried by ball_drawn events.
type BallPayload struct {
	Number    int    `json:"number"`
	Letter    string `json:"letter"`
	Display   string `json:"display"`
	Remaining int    `json:"remaining"`
}

// ResultEntry is one row of a question results snapshot.
type ResultEntry struct {
	PlayerID        string  `json:"playerId"`
	Nickname        string  `json:"nickname"`
	SelectedIndex   int     `json:"selectedIndex"`
	IsCorrect       bool    `json:"isCorrect"`
	PointsEarned    int     `json:"pointsEarned"`
	ResponseSeconds float64 `json:"responseTimeSeconds"`
}

// ResultsPayload is carried by question_results events.
type ResultsPayload struct {
	QuestionID   string        `json:"questionId"`
	CorrectIndex int           `json:"correctIndex"`
	Expired      bool          `json:"expired"`
	Results      []ResultEntry `json:"results"`
}
