// Package card generates bingo cards.
//
// Cards are 5x5, column-major (index = column*5 + row). Column c holds five
// distinct numbers from [15c+1, 15c+15]; the center cell is the free cell.
package card

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/bingonight/internal/domain/model"
)

// ColumnRange is the count of numbers available to each column.
const ColumnRange = 15

// Card is a generated bingo card.
type Card [model.CardSize]int

// List converts the card to its persisted form.
func (c Card) List() model.IntList {
	out := make(model.IntList, model.CardSize)
	copy(out, c[:])
	return out
}

// Generator produces random cards. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// NewGenerator creates a card generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // game randomness, not security
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh card.
func (g *Generator) Generate() Card {
	g.mu.Lock()
	defer g.mu.Unlock()

	var c Card
	for col := 0; col < model.CardSide; col++ {
		low := col*ColumnRange + 1
		used := make(map[int]bool, model.CardSide)
		for row := 0; row < model.CardSide; row++ {
			idx := col*model.CardSide + row
			if idx == model.FreeCell {
				c[idx] = model.FreeValue
				continue
			}
			n := low + g.rng.Intn(ColumnRange)
			for used[n] {
				n = low + g.rng.Intn(ColumnRange)
			}
			used[n] = true
			c[idx] = n
		}
	}
	return c
}

// Index returns the cell index of (column, row).
func Index(col, row int) int { return col*model.CardSide + row }

// Column returns the column a cell index belongs to.
func Column(idx int) int { return idx / model.CardSide }

// Fingerprint returns a compact content hash of a card for audit events.
func Fingerprint(cells model.IntList) string {
	h := fnv.New64a()
	for _, n := range cells {
		_, _ = h.Write([]byte{byte(n)})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Validate checks that cells form a well-shaped card.
func Validate(cells model.IntList) error {
	if len(cells) != model.CardSize {
		return fmt.Errorf("card has %d cells, want %d", len(cells), model.CardSize)
	}
	for col := 0; col < model.CardSide; col++ {
		low, high := col*ColumnRange+1, (col+1)*ColumnRange
		seen := make(map[int]bool, model.CardSide)
		for row := 0; row < model.CardSide; row++ {
			idx := Index(col, row)
			n := cells[idx]
			if idx == model.FreeCell {
				if n != model.FreeValue {
					return fmt.Errorf("free cell holds %d", n)
				}
				continue
			}
			if n < low || n > high {
				return fmt.Errorf("cell %d value %d outside [%d,%d]", idx, n, low, high)
			}
			if seen[n] {
				return fmt.Errorf("cell %d repeats %d", idx, n)
			}
			seen[n] = true
		}
	}
	return nil
}
