package engine

import (
	"github.com/petrelchess/petrel/internal/board"
)

// Move ordering scores; higher is tried first.
const (
	scorePVMove    = 1 << 20
	scoreCapture   = 100000
	scorePromotion = 90000
	scoreKiller    = 80000
)

// movePicker is the stateful per-ply move source. One instance per ply
// is allocated at search start and reused for every node visited at that
// ply: set the position, inject ordering hints, then pull moves best
// first. Generation is lazy and ordering is selection-based, so a node
// that cuts off early never sorts the whole list.
type movePicker struct {
	pos     *board.Position
	list    board.MoveList
	scores  [256]int
	next    int
	primed  bool
	qsearch bool

	pvMove  board.Move
	killers []board.Move
}

// setPosition readies the picker for a new node. Hints from the previous
// node are discarded.
func (mp *movePicker) setPosition(pos *board.Position, qsearch bool) {
	mp.pos = pos
	mp.qsearch = qsearch
	mp.list.Clear()
	mp.next = 0
	mp.primed = false
	mp.pvMove = board.NoMove
	mp.killers = nil
}

// setPVMove injects the move to try first.
func (mp *movePicker) setPVMove(m board.Move) {
	mp.pvMove = m
}

// setKillers injects the killer moves of this ply.
func (mp *movePicker) setKillers(killers []board.Move) {
	mp.killers = killers
}

// nextMove returns the best-scored remaining pseudo-legal move, NoMove
// when exhausted.
func (mp *movePicker) nextMove() board.Move {
	if !mp.primed {
		if mp.qsearch {
			mp.pos.GenerateQMoves(&mp.list)
		} else {
			mp.pos.GenerateMoves(&mp.list)
		}
		for i := 0; i < mp.list.Len(); i++ {
			mp.scores[i] = mp.scoreMove(mp.list.Get(i))
		}
		mp.primed = true
	}

	if mp.next >= mp.list.Len() {
		return board.NoMove
	}

	best := mp.next
	for i := mp.next + 1; i < mp.list.Len(); i++ {
		if mp.scores[i] > mp.scores[best] {
			best = i
		}
	}
	if best != mp.next {
		mp.list.Swap(mp.next, best)
		mp.scores[mp.next], mp.scores[best] = mp.scores[best], mp.scores[mp.next]
	}
	m := mp.list.Get(mp.next)
	mp.next++
	return m
}

// generated returns how many moves the picker produced so far.
func (mp *movePicker) generated() int {
	if !mp.primed {
		return 0
	}
	return mp.list.Len()
}

func (mp *movePicker) scoreMove(m board.Move) int {
	if m == mp.pvMove {
		return scorePVMove
	}
	if m.IsCapture() {
		// Most valuable victim first, least valuable attacker breaking ties.
		return scoreCapture + m.Captured().Value()*10 - m.Piece().Value()/10
	}
	if m.Type() == board.Promotion {
		return scorePromotion + m.Promotion().Value()
	}
	for i, k := range mp.killers {
		if m == k {
			return scoreKiller - i
		}
	}
	return 0
}

// sortedMoves scores and sorts a move slice best first, used for the
// root move list.
func sortedMoves(moves []board.Move, pvMove board.Move) {
	var mp movePicker
	mp.pvMove = pvMove
	for i := 1; i < len(moves); i++ {
		m := moves[i]
		score := mp.scoreMove(m)
		j := i - 1
		for j >= 0 && mp.scoreMove(moves[j]) < score {
			moves[j+1] = moves[j]
			j--
		}
		moves[j+1] = m
	}
}
