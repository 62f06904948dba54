// Package model contains the game entities shared between layers.
package model

import "time"

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

// Session statuses.
const (
	StatusWaiting         SessionStatus = "waiting"
	StatusActive          SessionStatus = "active"
	StatusPaused          SessionStatus = "paused"
	StatusEnded           SessionStatus = "ended"
	StatusWinnerAnnounced SessionStatus = "winner_announced"
)

// GameMode selects what the session is currently playing.
type GameMode string

// Game modes.
const (
	ModeBingo  GameMode = "bingo"
	ModeTrivia GameMode = "trivia"
)

// Valid reports whether m is a known mode.
func (m GameMode) Valid() bool { return m == ModeBingo || m == ModeTrivia }

// BingoMode selects how prizes are claimed.
type BingoMode string

// Bingo modes.
const (
	BingoStandard BingoMode = "standard"
	BingoManual   BingoMode = "manual"
)

// Valid reports whether m is a known bingo mode.
func (m BingoMode) Valid() bool { return m == BingoStandard || m == BingoManual }

// Prize is a claimable award. A round has one of each.
type Prize string

// Prizes. WinGeneral is not a prize: it only announces a winner.
const (
	PrizeLine     Prize = "line"
	PrizeFullCard Prize = "full_card"
	WinGeneral    Prize = "general"
)

// Valid reports whether p is a claimable prize.
func (p Prize) Valid() bool { return p == PrizeLine || p == PrizeFullCard }

// Round limits.
const (
	MinRounds = 1
	MaxRounds = 40
)

// Session is one live game.
type Session struct {
	ID          string        `json:"id" gorm:"primaryKey;size:36"`
	Code        string        `json:"code" gorm:"uniqueIndex;size:32;not null"`
	Status      SessionStatus `json:"status" gorm:"size:24;not null"`
	Mode        GameMode      `json:"mode" gorm:"size:16;not null"`
	BingoMode   BingoMode     `json:"bingoMode" gorm:"size:16;not null"`
	RoundNumber int           `json:"roundNumber" gorm:"not null"`
	MaxRounds   int           `json:"maxRounds" gorm:"not null"`

	CurrentBall *int    `json:"currentBall"`
	DrawnBalls  IntList `json:"drawnBalls" gorm:"type:text"`

	CurrentQuestionID string     `json:"currentQuestionId,omitempty" gorm:"size:36"`
	QuestionStartedAt *time.Time `json:"questionStartedAt,omitempty"`
	QuestionEndsAt    *time.Time `json:"questionEndsAt,omitempty"`
	// QuestionRemainingMS holds the time left on a paused question.
	QuestionRemainingMS int64 `json:"questionRemainingMs,omitempty"`

	LinePrizeClaimed     bool   `json:"linePrizeClaimed"`
	FullCardPrizeClaimed bool   `json:"fullCardPrizeClaimed"`
	LineWinnerID         string `json:"lineWinnerId,omitempty" gorm:"size:36"`
	FullCardWinnerID     string `json:"fullCardWinnerId,omitempty" gorm:"size:36"`
	WinnerNickname       string `json:"winnerNickname,omitempty"`
	PreviousRoundWinner  string `json:"previousRoundWinner,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.DrawnBalls = s.DrawnBalls.Clone()
	c.CurrentBall = cloneInt(s.CurrentBall)
	c.QuestionStartedAt = cloneTime(s.QuestionStartedAt)
	c.QuestionEndsAt = cloneTime(s.QuestionEndsAt)
	return &c
}

// PrizeClaimed reports whether p is already claimed this round.
func (s *Session) PrizeClaimed(p Prize) bool {
	switch p {
	case PrizeLine:
		return s.LinePrizeClaimed
	case PrizeFullCard:
		return s.FullCardPrizeClaimed
	default:
		return false
	}
}

// ApplyClaim records a successful claim on the in-memory copy.
func (s *Session) ApplyClaim(c Claim) {
	switch c.Prize {
	case PrizeLine:
		s.LinePrizeClaimed = true
		s.LineWinnerID = c.PlayerID
	case PrizeFullCard:
		s.FullCardPrizeClaimed = true
		s.FullCardWinnerID = c.PlayerID
		s.WinnerNickname = c.Nickname
		s.Status = StatusWinnerAnnounced
	}
}

// MarkClaimed sets only the flag of p. Used when another player holds it.
func (s *Session) MarkClaimed(p Prize) {
	switch p {
	case PrizeLine:
		s.LinePrizeClaimed = true
	case PrizeFullCard:
		s.FullCardPrizeClaimed = true
	}
}

// Claim is a request to take a prize for a player.
type Claim struct {
	Prize    Prize
	PlayerID string
	Nickname string
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
