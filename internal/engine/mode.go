package engine

import (
	"time"

	"github.com/petrelchess/petrel/internal/board"
)

// SearchMode describes the stop conditions of one search, mirroring the
// fields of the UCI "go" command.
type SearchMode struct {
	StartDepth int // first iteration depth, defaults to 1
	Depth      int // fixed maximum depth, 0 = none
	MoveTime   time.Duration
	WhiteTime  time.Duration
	BlackTime  time.Duration
	WhiteInc   time.Duration
	BlackInc   time.Duration
	MovesToGo  int
	Nodes      int64 // node budget, 0 = none
	Mate       int   // search for mate in N full moves, 0 = none
	Infinite   bool
	Ponder     bool
	Perft      bool

	// Moves restricts the root search to these moves in long algebraic
	// notation (UCI "searchmoves").
	Moves []string
}

// RemainingTime returns the clock of the given color.
func (m *SearchMode) RemainingTime(c board.Color) time.Duration {
	if c == board.White {
		return m.WhiteTime
	}
	return m.BlackTime
}

// Increment returns the per-move increment of the given color.
func (m *SearchMode) Increment(c board.Color) time.Duration {
	if c == board.White {
		return m.WhiteInc
	}
	return m.BlackInc
}

// IsTimeControl reports whether the search is bounded by the clock. A
// ponder search runs clockless until PonderHit re-arms it.
func (m *SearchMode) IsTimeControl() bool {
	if m.Infinite || m.Ponder {
		return false
	}
	return m.MoveTime > 0 || m.WhiteTime > 0 || m.BlackTime > 0
}

// startDepth returns the first iteration depth.
func (m *SearchMode) startDepth() int {
	if m.StartDepth > 0 {
		return m.StartDepth
	}
	return 1
}

// maxDepth returns the last iteration depth. A mate-in-N search needs
// exactly 2N-1 plies.
func (m *SearchMode) maxDepth() int {
	switch {
	case m.Mate > 0:
		return min(2*m.Mate-1, MaxSearchDepth)
	case m.Depth > 0:
		return min(m.Depth, MaxSearchDepth)
	}
	return MaxSearchDepth
}

// ponderHit converts a running ponder search into a regular one.
func (m *SearchMode) ponderHit() {
	m.Ponder = false
}
