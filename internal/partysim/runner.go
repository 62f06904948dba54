package partysim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bingonight/pkg/logger"
)

// Card and prize constants mirrored from the service's wire format.
const (
	freeCell     = 12
	prizeLine    = "line"
	prizeFull    = "full_card"
	totalBalls   = 75
	maxMarkers   = 16
	defaultBatch = 8
)

// Run plays one simulated round against the service and verifies its prizes.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("partysim")

	log.Info(ctx, "starting party simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.Players),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Get(ctx, "/healthz", nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Host login
	var login struct {
		Token string `json:"token"`
	}
	if err := client.Post(ctx, "/api/host/login", map[string]string{"secret": config.HostSecret}, &login); err != nil {
		return nil, fmt.Errorf("host login failed: %w", err)
	}
	host := client.WithToken(login.Token)

	// Step 3: Create the session
	stats.SessionCode = "SIM-" + strings.ToUpper(uuid.NewString()[:6])
	if err := host.Post(ctx, "/api/sessions", map[string]any{
		"code":      stats.SessionCode,
		"maxRounds": config.MaxRounds,
	}, nil); err != nil {
		return nil, fmt.Errorf("create session failed: %w", err)
	}
	base := "/api/sessions/" + stats.SessionCode

	// Step 4: Players join concurrently
	players, err := joinPlayers(ctx, client, base, config.Players)
	if err != nil {
		return nil, fmt.Errorf("join failed: %w", err)
	}
	stats.PlayersJoined = len(players)

	// Step 5: Play the round
	if err := host.Post(ctx, base+"/commands", map[string]string{"action": "start_game"}, nil); err != nil {
		return nil, fmt.Errorf("start game failed: %w", err)
	}
	if err := playRound(ctx, client, host, base, players, stats, config.Verbose); err != nil {
		return nil, fmt.Errorf("round failed: %w", err)
	}

	// Step 6: Verify the prizes
	if err := verifyWinners(ctx, client, base, stats); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// joinPlayers joins n players using a bounded worker pool.
func joinPlayers(ctx context.Context, client *Client, base string, n int) ([]Player, error) {
	var (
		mu      sync.Mutex
		players = make([]Player, 0, n)
		errs    []error
		wg      sync.WaitGroup
	)
	indexes := make(chan int, defaultBatch)
	for w := 0; w < min(n, defaultBatch); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				var res joinResponse
				err := client.Post(ctx, base+"/join", map[string]string{
					"nickname": fmt.Sprintf("player%03d", i),
					"pin":      fmt.Sprintf("%04d", i%10000),
				}, &res)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					players = append(players, res.Player)
				}
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < n; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return players, errors.Join(errs...)
}

// playRound draws balls until the full card is won or the drum is empty.
// After each draw every player marks all drawn numbers on their card at once.
func playRound(ctx context.Context, client, host *Client, base string, players []Player, stats *Stats, verbose bool) error {
	log := logger.Get().Named("partysim")
	for stats.BallsDrawn < totalBalls && len(stats.FullWinners) == 0 {
		var draw drawResponse
		if err := host.Post(ctx, base+"/commands", map[string]string{"action": "draw_ball"}, &draw); err != nil {
			var se *StatusError
			if errors.As(err, &se) && (se.Code == "invalid_state" || se.Code == "limit_reached") {
				return nil
			}
			return err
		}
		stats.BallsDrawn++
		if verbose {
			log.Debug(ctx, "ball drawn", logger.Int("number", draw.Number), logger.Int("remaining", draw.Remaining))
		}
		markAll(ctx, client, base, players, draw.DrawnBalls, stats)
	}
	return nil
}

// markAll sends one mark request per player concurrently.
func markAll(ctx context.Context, client *Client, base string, players []Player, drawn []int, stats *Stats) {
	set := make(map[int]bool, len(drawn))
	for _, n := range drawn {
		set[n] = true
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxMarkers)
	)
	for _, p := range players {
		cells := markable(p.Card, set)
		wg.Add(1)
		sem <- struct{}{}
		go func(p Player) {
			defer wg.Done()
			defer func() { <-sem }()
			var res markResponse
			err := client.Post(ctx, base+"/players/"+p.ID+"/marks", map[string][]int{"cells": cells}, &res)

			mu.Lock()
			defer mu.Unlock()
			stats.MarkRequests++
			switch {
			case err != nil:
				stats.MarkFailures++
			case res.Announced && res.WinType == prizeLine:
				stats.LineWinners = append(stats.LineWinners, p.Nickname)
			case res.Announced && res.WinType == prizeFull:
				stats.FullWinners = append(stats.FullWinners, p.Nickname)
			}
		}(p)
	}
	wg.Wait()
}

// markable returns the card cells holding a drawn number, plus the free cell.
func markable(card []int, drawn map[int]bool) []int {
	cells := []int{freeCell}
	for idx, n := range card {
		if idx != freeCell && drawn[n] {
			cells = append(cells, idx)
		}
	}
	return cells
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.String("session", stats.SessionCode),
		logger.Int("players", stats.PlayersJoined),
		logger.Int("ballsDrawn", stats.BallsDrawn),
		logger.Int("markRequests", stats.MarkRequests),
		logger.Int("markFailures", stats.MarkFailures),
		logger.Any("lineWinners", stats.LineWinners),
		logger.Any("fullCardWinners", stats.FullWinners),
		logger.Duration("duration", stats.Duration))
}
