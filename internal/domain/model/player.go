package model

import "time"

// PlayerStatus is a player's membership state.
type PlayerStatus string

// Player statuses.
const (
	PlayerActive PlayerStatus = "active"
	PlayerKicked PlayerStatus = "kicked"
)

// Card geometry. Cards are column-major: index = column*CardSide + row.
const (
	CardSide  = 5
	CardSize  = CardSide * CardSide
	FreeCell  = 12
	FreeValue = 0
)

// Player is a participant in exactly one session.
type Player struct {
	ID           string       `json:"id" gorm:"primaryKey;size:36"`
	SessionID    string       `json:"sessionId" gorm:"size:36;not null;uniqueIndex:idx_player_nickname"`
	Nickname     string       `json:"nickname" gorm:"size:64;not null;uniqueIndex:idx_player_nickname"`
	Pin          string       `json:"-" gorm:"size:4;not null"`
	Status       PlayerStatus `json:"status" gorm:"size:16;not null"`
	Card         IntList      `json:"bingoCard" gorm:"type:text"`
	Marked       IntList      `json:"markedCells" gorm:"type:text"`
	Wins         int          `json:"wins"`
	TriviaPoints int          `json:"triviaPoints"`
	TeamID       string       `json:"teamId,omitempty" gorm:"size:36;index"`
	LastSeenAt   time.Time    `json:"lastSeenAt"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Clone returns a deep copy.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	c.Card = p.Card.Clone()
	c.Marked = p.Marked.Clone()
	return &c
}

// Active reports whether the player is still in the game.
func (p *Player) Active() bool { return p.Status == PlayerActive }

// Team groups players of a session.
type Team struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	SessionID string    `json:"sessionId" gorm:"size:36;not null;index"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	Color     string    `json:"color" gorm:"size:16"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a copy.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
