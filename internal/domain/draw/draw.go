// Package draw picks bingo balls without repetition.
package draw

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/bingonight/internal/domain/errs"
	"github.com/okian/bingonight/internal/domain/model"
)

// Ball range.
const (
	MinBall    = 1
	MaxBall    = 75
	TotalBalls = MaxBall - MinBall + 1
)

const letters = "BINGO"

// Letter returns the column letter of a ball number.
func Letter(n int) string {
	if n < MinBall || n > MaxBall {
		return ""
	}
	return string(letters[(n-1)/15])
}

// Display renders a ball as "B-7".
func Display(n int) string {
	return fmt.Sprintf("%s-%d", Letter(n), n)
}

// Engine picks balls uniformly from those not yet drawn. Callers serialize
// Pick and the append of its result per session.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// NewEngine creates a draw engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // game randomness, not security
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pick returns a ball absent from drawn. It fails with errs.ErrAllBallsDrawn
// once every ball is out.
func (e *Engine) Pick(drawn model.IntList) (int, error) {
	if len(drawn) >= TotalBalls {
		return 0, errs.ErrAllBallsDrawn
	}
	taken := drawn.Set()
	available := make([]int, 0, TotalBalls-len(drawn))
	for n := MinBall; n <= MaxBall; n++ {
		if !taken[n] {
			available = append(available, n)
		}
	}
	if len(available) == 0 {
		return 0, errs.ErrAllBallsDrawn
	}

	e.mu.Lock()
	i := e.rng.Intn(len(available))
	e.mu.Unlock()
	return available[i], nil
}

// Remaining returns how many balls are still in the machine.
func Remaining(drawn model.IntList) int {
	return TotalBalls - len(drawn)
}
