// Package scoring computes trivia answer points.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Default scoring configuration constants.
const (
	defaultBonusDivisor = 2
	defaultBasePoints   = 10
)

// Option applies a configuration option to the TimeBonusScorer.
type Option func(*TimeBonusScorer)

// WithBonusDivisor sets how many seconds of headroom earn one bonus point.
func WithBonusDivisor(divisor int) Option {
	return func(s *TimeBonusScorer) {
		if divisor > 0 {
			s.bonusDivisor = divisor
		}
	}
}

// WithDefaultBasePoints sets the base value for questions that carry none.
func WithDefaultBasePoints(points int) Option {
	return func(s *TimeBonusScorer) {
		if points > 0 {
			s.defaultBase = points
		}
	}
}

// Input abstracts the answer fields needed for scoring.
type Input struct {
	BasePoints int
	TimeLimit  time.Duration
	Elapsed    time.Duration
	Correct    bool
}

// Result contains the computed points for an answer.
type Result struct {
	Points int
	Bonus  int
}

// Scorer computes points for an answer.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// TimeBonusScorer awards base points plus one point per bonusDivisor seconds
// left on the clock. Wrong answers earn nothing.
type TimeBonusScorer struct {
	bonusDivisor int
	defaultBase  int
}

// NewTimeBonusScorer creates a scorer with configuration options.
func NewTimeBonusScorer(opts ...Option) *TimeBonusScorer {
	s := &TimeBonusScorer{
		bonusDivisor: defaultBonusDivisor,
		defaultBase:  defaultBasePoints,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes points for the given input.
func (s *TimeBonusScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if in.Elapsed < 0 {
		return Result{}, fmt.Errorf("negative elapsed time %s", in.Elapsed)
	}
	if !in.Correct {
		return Result{}, nil
	}
	base := in.BasePoints
	if base <= 0 {
		base = s.defaultBase
	}
	left := (in.TimeLimit - in.Elapsed).Seconds()
	bonus := int(math.Floor(left / float64(s.bonusDivisor)))
	if bonus < 0 {
		bonus = 0
	}
	return Result{Points: base + bonus, Bonus: bonus}, nil
}
