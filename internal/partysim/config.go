package partysim

import (
	"encoding/json"
	"time"
)

// Config holds configuration for a simulated party.
type Config struct {
	BaseURL    string        // Base URL of the service
	HostSecret string        // Secret the host logs in with
	Players    int           // Number of simulated players
	MaxRounds  int           // Rounds the session allows
	Timeout    time.Duration // HTTP request timeout
	LogFile    string        // Log file for simulation output
	Verbose    bool          // Enable verbose logging
}

// Player is the part of a player record the simulation reads.
type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Card     []int  `json:"bingoCard"`
}

type joinResponse struct {
	Player      Player `json:"player"`
	Reconnected bool   `json:"reconnected"`
}

type drawResponse struct {
	Number     int   `json:"number"`
	DrawnBalls []int `json:"drawnBalls"`
	Remaining  int   `json:"remaining"`
}

type markResponse struct {
	HasLine     bool   `json:"hasLine"`
	HasFullCard bool   `json:"hasFullCard"`
	WinType     string `json:"winType"`
	Announced   bool   `json:"announced"`
}

type winnerEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type winnerPayload struct {
	WinType  string `json:"winType"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds simulation statistics.
type Stats struct {
	SessionCode   string
	PlayersJoined int
	BallsDrawn    int
	MarkRequests  int
	MarkFailures  int
	LineWinners   []string
	FullWinners   []string
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
