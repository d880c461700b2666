package engine

import (
	"github.com/petrelchess/petrel/internal/board"
)

// Evaluator scores a position in centipawns from the side to move's
// point of view. The search treats it as an external collaborator.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// classicEval is a material + piece-square evaluator with a small tempo
// bonus, tapered between opening and endgame by the game phase.
type classicEval struct{}

// NewClassicEval returns the default evaluator.
func NewClassicEval() Evaluator {
	return classicEval{}
}

const tempoBonus = 10

// Piece-square tables from white's perspective, a1 = index 0.
var pstMG = [6][64]int{
	{ // pawn
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, -20, -20, 10, 10, 5,
		5, -5, -10, 0, 0, -10, -5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, 5, 10, 25, 25, 10, 5, 5,
		10, 10, 20, 30, 30, 20, 10, 10,
		50, 50, 50, 50, 50, 50, 50, 50,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	{ // knight
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	},
	{ // bishop
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	},
	{ // rook
		0, 0, 0, 5, 5, 0, 0, 0,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		5, 10, 10, 10, 10, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	{ // queen
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-10, 5, 5, 5, 5, 5, 0, -10,
		0, 0, 5, 5, 5, 5, 0, -5,
		-5, 0, 5, 5, 5, 5, 0, -5,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	},
	{ // king
		20, 30, 10, 0, 0, 10, 30, 20,
		20, 20, 0, 0, 0, 0, 20, 20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
	},
}

// Endgame tables differ only where it matters: pawns push, the king
// centralizes.
var pstEG = [6][64]int{
	{ // pawn
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 5, 5, 5, 5, 5, 5, 5,
		10, 10, 10, 10, 10, 10, 10, 10,
		20, 20, 20, 20, 20, 20, 20, 20,
		40, 40, 40, 40, 40, 40, 40, 40,
		80, 80, 80, 80, 80, 80, 80, 80,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	pstMG[board.Knight],
	pstMG[board.Bishop],
	pstMG[board.Rook],
	pstMG[board.Queen],
	{ // king
		-50, -30, -30, -30, -30, -30, -30, -50,
		-30, -30, 0, 0, 0, 0, -30, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -20, -10, 0, 0, -10, -20, -30,
		-50, -40, -30, -20, -20, -30, -40, -50,
	},
}

// Evaluate returns the score in centipawns, positive when the side to
// move is better.
func (classicEval) Evaluate(pos *board.Position) int {
	var mg, eg int
	for pt := board.Pawn; pt <= board.King; pt++ {
		value := pt.Value()
		if pt == board.King {
			value = 0
		}

		bb := pos.PiecesOf(board.White, pt)
		for bb != 0 {
			sq := bb.PopLSB()
			mg += value + pstMG[pt][sq]
			eg += value + pstEG[pt][sq]
		}
		bb = pos.PiecesOf(board.Black, pt)
		for bb != 0 {
			sq := bb.PopLSB().Mirror()
			mg -= value + pstMG[pt][sq]
			eg -= value + pstEG[pt][sq]
		}
	}

	phase := pos.GamePhase()
	score := int(float32(mg)*phase + float32(eg)*(1-phase))
	if pos.SideToMove() == board.Black {
		score = -score
	}
	return score + tempoBonus
}
