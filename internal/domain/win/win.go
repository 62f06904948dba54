// Package win detects winning patterns on a marked card.
package win

import "github.com/okian/bingonight/internal/domain/model"

// Patterns are the 12 winning lines under column-major indexing:
// 5 rows, 5 columns, then the two diagonals.
var Patterns = buildPatterns()

func buildPatterns() [][model.CardSide]int {
	out := make([][model.CardSide]int, 0, 2*model.CardSide+2)
	for row := 0; row < model.CardSide; row++ {
		var p [model.CardSide]int
		for col := 0; col < model.CardSide; col++ {
			p[col] = col*model.CardSide + row
		}
		out = append(out, p)
	}
	for col := 0; col < model.CardSide; col++ {
		var p [model.CardSide]int
		for row := 0; row < model.CardSide; row++ {
			p[row] = col*model.CardSide + row
		}
		out = append(out, p)
	}
	var down, up [model.CardSide]int
	for i := 0; i < model.CardSide; i++ {
		down[i] = i*model.CardSide + i
		up[i] = (model.CardSide-1-i)*model.CardSide + i
	}
	return append(out, down, up)
}

// Result is the outcome of evaluating a set of marks.
type Result struct {
	HasLine     bool
	HasFullCard bool
	// Lines holds the indexes into Patterns that are complete.
	Lines []int
}

// Evaluate checks marked cell indexes against every pattern and full card.
func Evaluate(marked map[int]bool) Result {
	var r Result
	for i, p := range Patterns {
		complete := true
		for _, idx := range p {
			if !marked[idx] {
				complete = false
				break
			}
		}
		if complete {
			r.Lines = append(r.Lines, i)
		}
	}
	r.HasLine = len(r.Lines) > 0

	full := true
	for idx := 0; idx < model.CardSize; idx++ {
		if !marked[idx] {
			full = false
			break
		}
	}
	r.HasFullCard = full
	return r
}

// EvaluateList is Evaluate over a list of indexes.
func EvaluateList(marked []int) Result {
	set := make(map[int]bool, len(marked))
	for _, idx := range marked {
		set[idx] = true
	}
	return Evaluate(set)
}
