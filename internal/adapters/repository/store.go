// Package repository persists sessions, players, teams, questions, answers
// and events.
package repository

import (
	"context"

	"github.com/okian/bingonight/internal/domain/model"
)

// SessionStore reads and writes sessions.
type SessionStore interface {
	// CreateSession inserts s. Returns ErrConflict if the code is taken.
	CreateSession(ctx context.Context, s *model.Session) error
	// GetSession returns ErrNotFound if id is unknown.
	GetSession(ctx context.Context, id string) (*model.Session, error)
	// GetSessionByCode returns ErrNotFound if code is unknown.
	GetSessionByCode(ctx context.Context, code string) (*model.Session, error)
	// SaveSession overwrites an existing session.
	SaveSession(ctx context.Context, s *model.Session) error
	// ClaimPrize sets the prize flag and winner fields if the flag is still
	// clear. Returns true only for the call that set it.
	ClaimPrize(ctx context.Context, sessionID string, c model.Claim) (bool, error)
	// CountSessions returns the number of stored sessions.
	CountSessions(ctx context.Context) (int, error)
	// ListSessions returns every session ordered by creation time.
	ListSessions(ctx context.Context) ([]*model.Session, error)
}

// PlayerStore reads and writes players.
type PlayerStore interface {
	// CreatePlayer inserts p. Returns ErrConflict if the nickname is taken in
	// the session.
	CreatePlayer(ctx context.Context, p *model.Player) error
	GetPlayer(ctx context.Context, id string) (*model.Player, error)
	GetPlayerByNickname(ctx context.Context, sessionID, nickname string) (*model.Player, error)
	SavePlayer(ctx context.Context, p *model.Player) error
	// ListPlayers returns the session's players in join order.
	ListPlayers(ctx context.Context, sessionID string) ([]*model.Player, error)
}

// TeamStore reads and writes teams. Names are unique per session ignoring case.
type TeamStore interface {
	CreateTeam(ctx context.Context, t *model.Team) error
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	SaveTeam(ctx context.Context, t *model.Team) error
	// DeleteTeam removes the team and clears TeamID on its players.
	DeleteTeam(ctx context.Context, id string) error
	ListTeams(ctx context.Context, sessionID string) ([]*model.Team, error)
}

// QuestionStore reads and writes trivia questions and answers.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	SaveQuestion(ctx context.Context, q *model.Question) error
	// DeleteQuestion removes the question and its answers.
	DeleteQuestion(ctx context.Context, id string) error
	// ListQuestions returns the session's questions ordered by Seq.
	ListQuestions(ctx context.Context, sessionID string) ([]*model.Question, error)
	// CreateAnswer inserts a. Returns ErrConflict if the player already
	// answered the question.
	CreateAnswer(ctx context.Context, a *model.Answer) error
	// ListAnswers returns the question's answers in submission order.
	ListAnswers(ctx context.Context, questionID string) ([]*model.Answer, error)
}

// EventStore is the append-only audit log.
type EventStore interface {
	// AppendEvent assigns ID (when empty), Seq and CreatedAt, then stores e.
	AppendEvent(ctx context.Context, e *model.Event) error
	// ListEvents returns the session's last limit events in Seq order.
	// A limit <= 0 returns all of them.
	ListEvents(ctx context.Context, sessionID string, limit int) ([]*model.Event, error)
	// ListEventsByType returns the session's events of typ in Seq order.
	ListEventsByType(ctx context.Context, sessionID string, typ model.EventType) ([]*model.Event, error)
}

// Purger removes data in bulk for operator tooling.
type Purger interface {
	// PurgeSessions removes every session and everything that belongs to one.
	PurgeSessions(ctx context.Context) (int64, error)
	// PurgePlayers removes every player and their answers.
	PurgePlayers(ctx context.Context) (int64, error)
	// PurgeRecords removes every answer and event.
	PurgeRecords(ctx context.Context) (int64, error)
	// PurgeTeams removes every team and clears team references.
	PurgeTeams(ctx context.Context) (int64, error)
}

// Store is the full persistence surface used by the game service.
// Each write is visible to subsequent reads. Returned values are copies.
type Store interface {
	SessionStore
	PlayerStore
	TeamStore
	QuestionStore
	EventStore
	Purger
	Close() error
}
