package partysim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// verifyWinners checks that each prize went to exactly one player and that
// the winner history agrees with what the players saw.
func verifyWinners(ctx context.Context, client *Client, base string, stats *Stats) error {
	log.Println("verifying winners...")

	if stats.MarkFailures > 0 {
		return fmt.Errorf("%d mark requests failed", stats.MarkFailures)
	}
	if len(stats.LineWinners) != 1 {
		return fmt.Errorf("expected one line winner, got %v", stats.LineWinners)
	}
	if len(stats.FullWinners) != 1 {
		return fmt.Errorf("expected one full card winner, got %v", stats.FullWinners)
	}

	var history struct {
		Winners []winnerEvent `json:"winners"`
	}
	if err := client.Get(ctx, base+"/winners", &history); err != nil {
		return fmt.Errorf("winner history: %w", err)
	}
	got := make(map[string][]string)
	for _, ev := range history.Winners {
		var p winnerPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode winner payload: %w", err)
		}
		got[p.WinType] = append(got[p.WinType], p.Nickname)
	}
	if err := sameWinner(prizeLine, got[prizeLine], stats.LineWinners[0]); err != nil {
		return err
	}
	if err := sameWinner(prizeFull, got[prizeFull], stats.FullWinners[0]); err != nil {
		return err
	}

	log.Printf("line: %s, full card: %s", stats.LineWinners[0], stats.FullWinners[0])
	return nil
}

func sameWinner(prize string, history []string, want string) error {
	if len(history) != 1 {
		return fmt.Errorf("history has %d %s winners", len(history), prize)
	}
	if history[0] != want {
		return fmt.Errorf("history names %s as %s winner, players saw %s", history[0], prize, want)
	}
	return nil
}
