// Package engine implements the search core: transposition table, time
// control, quiescence and main alpha-beta search, the iterative deepening
// driver and the search orchestrator.
package engine

import (
	"fmt"

	"github.com/petrelchess/petrel/internal/board"
)

// MaxSearchDepth bounds the search tree depth in plies.
const MaxSearchDepth = 127

// maxMoves sizes the root move list's initial capacity and the
// beta-cutoff histogram; move indices past it are not counted there.
const maxMoves = 128

// Score sentinels in centipawns. Every representable score fits the
// transposition table's int16 value field.
const (
	ValueNone      = -32000 // unset
	ValueMin       = -30000 // -infinity for window math
	ValueMax       = 30000  // +infinity for window math
	ValueCheckmate = 10000
	ValueDraw      = 0

	// ValueCheckmateThreshold is the lower bound of the mate band: any
	// absolute score at or above it encodes a distance to mate.
	ValueCheckmateThreshold = ValueCheckmate - MaxSearchDepth
)

// isCheckmateValue reports whether v encodes a mate distance.
func isCheckmateValue(v int) bool {
	a := v
	if a < 0 {
		a = -a
	}
	return a >= ValueCheckmateThreshold && a <= ValueCheckmate
}

// mateIn converts a mate score to full moves until mate, negative when
// the side to move is being mated.
func mateIn(v int) int {
	moves := (ValueCheckmate - abs(v) + 1) / 2
	if v < 0 {
		return -moves
	}
	return moves
}

// scoreString formats a score the way the UCI protocol expects it.
func scoreString(v int) string {
	if isCheckmateValue(v) {
		return fmt.Sprintf("score mate %d", mateIn(v))
	}
	return fmt.Sprintf("score cp %d", v)
}

// valueToTT converts a score for storage: mate scores become distance
// from the storing node instead of distance from the root.
func valueToTT(v, ply int) int {
	if isCheckmateValue(v) {
		if v > 0 {
			return v + ply
		}
		return v - ply
	}
	return v
}

// valueFromTT re-offsets a stored mate score to the probing node's ply.
func valueFromTT(v, ply int) int {
	if isCheckmateValue(v) {
		if v > 0 {
			return v - ply
		}
		return v + ply
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// contempt is the score returned for an in-tree repetition draw: early in
// the game a draw is worth less than the neutral zero.
func contempt(pos *board.Position, factor int) int {
	return int(-pos.GamePhase() * float32(factor))
}
