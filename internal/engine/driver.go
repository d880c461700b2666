package engine

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/petrelchess/petrel/internal/board"
)

// uciUpdateInterval throttles periodic info lines to the sink.
const uciUpdateInterval = 500 * time.Millisecond

// SearchResult is the outcome of one search.
type SearchResult struct {
	BestMove   board.Move
	PonderMove board.Move
	Value      int
	Depth      int
	ExtraDepth int
	Time       time.Duration
	BookMove   bool

	// Invalid marks a result whose best move failed the final legality
	// check; it is still delivered so the fault is visible to the client.
	Invalid bool
}

func (r SearchResult) String() string {
	return fmt.Sprintf("best %s (%s) ponder %s depth %d/%d",
		r.BestMove, scoreString(r.Value), r.PonderMove, r.Depth, r.ExtraDepth)
}

// iterativeDeepening grows the search depth one ply at a time, seeding
// each iteration with the previous result, until a stop condition ends
// the loop. It always produces a result; on a terminal position the best
// move is NoMove.
func (s *Search) iterativeDeepening(pos *board.Position) SearchResult {
	start := time.Now()
	s.uciTicker = time.Now()

	alpha, beta := ValueMin, ValueMax
	s.currentBestRootMove = board.NoMove
	s.currentBestRootValue = ValueNone
	s.pv[0] = s.pv[0][:0]

	var result SearchResult

	// Game already over?
	if !pos.HasLegalMoves() {
		if pos.InCheck() {
			result.Value = -ValueCheckmate
		} else {
			result.Value = ValueDraw
		}
		result.BestMove = board.NoMove
		return result
	}

	depth := s.mode.startDepth()
	maxDepth := s.mode.maxDepth()

	s.tm.arm(&s.mode, s.myColor)

	// The move after the book line gets extra thinking time.
	if s.hadBookMove {
		s.hadBookMove = false
		s.tm.addExtra(2)
	}

	// Seed the root from the transposition table: adopt the cached best
	// move and PV, and the prior value when cached deep enough. Lower
	// depths are still searched.
	if s.config.UseTTRoot && s.config.UseTranspositionTable && !s.perft {
		if entry, ok := s.tt.Probe(pos.ZobristKey()); ok {
			s.counters.TTHits++
			s.mateThreat[0] = entry.MateThreat
			if entry.Move != board.NoMove {
				line := s.ttPVLine(pos, int(entry.Depth), s.pv[0][:0])
				if len(line) > 0 {
					s.currentBestRootMove = line[0]
					s.pv[0] = line
				}
			}
			if int(entry.Depth) >= depth {
				s.currentBestRootValue = int(entry.Value)
			}
		} else {
			s.counters.TTMisses++
		}
	}

	s.generateRootMoves(pos)

	if len(s.rootMoves) == 0 {
		// A move restriction can filter every legal move out.
		result.BestMove = board.NoMove
		result.Value = ValueDraw
		return result
	}

	// Without a TT seed the first generated move is the tentative PV.
	if s.currentBestRootMove == board.NoMove {
		s.currentBestRootMove = s.rootMoves[0]
		s.pv[0] = append(s.pv[0][:0], s.currentBestRootMove)
	}

	// A single legal reply is flagged and, in timed games, earns extra
	// time; the search itself runs as usual.
	if len(s.rootMoves) == 1 {
		s.singleReply[0] = true
		if s.mode.IsTimeControl() {
			s.tm.addExtra(1.5)
		}
	} else {
		s.singleReply[0] = false
	}

	for {
		s.counters.CurrentIterationDepth = depth
		s.counters.BestMoveChanges = 0
		s.counters.NodesVisited++ // the root itself

		var value int
		switch {
		case s.config.UseMTDf && depth >= s.config.MTDfStartDepth && !s.perft &&
			s.currentBestRootValue != ValueNone:
			value = s.mtdfSearch(pos, depth, s.currentBestRootValue)
		case s.config.UseAspirationWindow && depth >= s.config.AspirationStartDepth && !s.perft &&
			s.currentBestRootValue != ValueNone:
			value = s.aspirationSearch(pos, depth, s.currentBestRootValue)
		default:
			value = s.search(pos, depth, 0, alpha, beta, pvNode, doNull)
		}

		// Only an unstopped iteration may commit its value.
		if !s.stop.Load() {
			s.currentBestRootValue = value
			if len(s.pv[0]) > 0 {
				s.moveRootMoveToHead(s.pv[0][0])
			}
		}

		s.sendIterationInfo(start)

		if s.stop.Load() || s.tm.softReached() || s.tm.hardReached() {
			break
		}
		depth++
		if depth > maxDepth {
			break
		}
	}

	result.BestMove = s.currentBestRootMove
	result.Value = s.currentBestRootValue
	result.Depth = s.counters.CurrentSearchDepth
	result.ExtraDepth = s.counters.CurrentExtraDepth
	result.Time = time.Since(start)
	s.counters.LastSearchTime = result.Time

	if len(s.pv[0]) > 1 && s.pv[0][1] != board.NoMove {
		result.PonderMove = s.pv[0][1]
	}

	// Invariant check: the move we are about to play must be legal.
	if result.BestMove != board.NoMove && !s.perft {
		legal := false
		for _, m := range pos.LegalMoves() {
			if m == result.BestMove {
				legal = true
				break
			}
		}
		if !legal {
			log.Printf("engine: search returned illegal best move %s in %q", result.BestMove, pos.ToFEN())
			result.Invalid = true
		}
	}

	return result
}

// aspirationSearch retries the iteration with windows of increasing
// width around the previous best value: ±30, then ±200, then the full
// window. A fail low buys extra time, since a strong opponent reply may
// have been found.
func (s *Search) aspirationSearch(pos *board.Position, depth, bestValue int) int {
	alpha := max(ValueMin, bestValue-30)
	beta := min(ValueMax, bestValue+30)
	value := s.search(pos, depth, 0, alpha, beta, pvNode, doNull)

	if s.stop.Load() && (value <= alpha || value >= beta) {
		return bestValue
	}

	if value <= alpha { // fail low
		s.sendAspirationInfo(" upperbound")
		s.counters.AspirationResearches++
		s.tm.addExtra(1.3)
		alpha = max(ValueMin, bestValue-200)
		value = s.search(pos, depth, 0, alpha, beta, pvNode, doNull)
	} else if value >= beta { // fail high
		s.sendAspirationInfo(" lowerbound")
		s.counters.AspirationResearches++
		beta = min(ValueMax, bestValue+200)
		value = s.search(pos, depth, 0, alpha, beta, pvNode, doNull)
	}

	if s.stop.Load() && (value <= alpha || value >= beta) {
		return bestValue
	}

	if value <= alpha || value >= beta {
		if value <= alpha {
			s.sendAspirationInfo(" lowerbound")
			s.tm.addExtra(1.3)
		} else {
			s.sendAspirationInfo(" upperbound")
		}
		s.counters.AspirationResearches++
		value = s.search(pos, depth, 0, ValueMin, ValueMax, pvNode, doNull)
	}

	if s.stop.Load() {
		return bestValue
	}
	return value
}

// mtdfSearch brackets the true minimax value with zero-window searches
// around a running guess. Experimental; never combined with PVS.
func (s *Search) mtdfSearch(pos *board.Position, depth, f int) int {
	g := f
	upper := ValueMax
	lower := ValueMin
	for lower < upper {
		beta := g
		if g == lower {
			beta = g + 1
		}
		g = s.search(pos, depth, 0, beta-1, beta, pvNode, doNull)
		if g < beta {
			upper = g
		} else {
			lower = g
		}
		if s.stop.Load() {
			break
		}
	}
	return g
}

// generateRootMoves fills the root move list, applying the client's move
// restriction and ordering the list best guess first.
func (s *Search) generateRootMoves(pos *board.Position) {
	legal := pos.LegalMoves()

	s.rootMoves = s.rootMoves[:0]
	for _, m := range legal {
		if len(s.mode.Moves) > 0 && !containsMoveString(s.mode.Moves, m.String()) {
			continue
		}
		s.rootMoves = append(s.rootMoves, m)
	}

	if s.config.UsePVSOrdering {
		sortedMoves(s.rootMoves, s.currentBestRootMove)
	}

	if cap(s.rootValues) < len(s.rootMoves) {
		s.rootValues = make([]int, len(s.rootMoves))
	}
	s.rootValues = s.rootValues[:len(s.rootMoves)]
	for i := range s.rootValues {
		s.rootValues[i] = ValueNone
	}
}

func containsMoveString(moves []string, s string) bool {
	for _, m := range moves {
		if m == s {
			return true
		}
	}
	return false
}

// moveRootMoveToHead moves m to the front of the root list, keeping the
// order of the others.
func (s *Search) moveRootMoveToHead(m board.Move) {
	for i, rm := range s.rootMoves {
		if rm == m {
			copy(s.rootMoves[1:i+1], s.rootMoves[:i])
			s.rootMoves[0] = m
			return
		}
	}
}

// ttPVLine reconstructs the principal variation by following best moves
// through the transposition table, bounded by depth to avoid cycles.
func (s *Search) ttPVLine(pos *board.Position, depth int, line []board.Move) []board.Move {
	if depth < 0 {
		return line
	}
	entry, ok := s.tt.Probe(pos.ZobristKey())
	if !ok || entry.Move == board.NoMove {
		return line
	}
	if !pos.IsLegalMove(entry.Move) {
		return line
	}
	line = append(line, entry.Move)
	pos.MakeMove(entry.Move)
	line = s.ttPVLine(pos, depth-1, line)
	pos.UndoMove()
	return line
}

// probeBook consults the opening book; only time-controlled games use
// it, so fixed-depth analysis is never short-circuited.
func (s *Search) probeBook(pos *board.Position) (SearchResult, bool) {
	if !s.config.UseBook || s.book == nil || s.perft || !s.mode.IsTimeControl() {
		return SearchResult{}, false
	}
	move, ok := s.book.Probe(pos)
	if !ok {
		return SearchResult{}, false
	}
	s.hadBookMove = true
	return SearchResult{BestMove: move, BookMove: true}, true
}

// pvString formats a PV for an info line.
func pvString(line []board.Move) string {
	if len(line) == 0 {
		return ""
	}
	parts := make([]string, len(line))
	for i, m := range line {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// sendIterationInfo emits the end-of-iteration info line.
func (s *Search) sendIterationInfo(start time.Time) {
	elapsed := time.Since(start)
	nps := s.counters.NodesVisited * 1000 / (elapsed.Milliseconds() + 1)
	s.sendInfo(fmt.Sprintf("depth %d seldepth %d multipv 1 %s nodes %d nps %d time %d pv %s",
		s.counters.CurrentIterationDepth, s.counters.CurrentExtraDepth,
		scoreString(s.currentBestRootValue), s.counters.NodesVisited, nps,
		elapsed.Milliseconds(), pvString(s.pv[0])))
}

// sendAspirationInfo reports a window failure before the re-search.
func (s *Search) sendAspirationInfo(bound string) {
	elapsed := s.tm.elapsed()
	nps := s.counters.NodesVisited * 1000 / (elapsed.Milliseconds() + 1)
	s.sendInfo(fmt.Sprintf("depth %d seldepth %d multipv 1 %s%s nodes %d nps %d time %d pv %s",
		s.counters.CurrentIterationDepth, s.counters.CurrentExtraDepth,
		scoreString(s.currentBestRootValue), bound, s.counters.NodesVisited, nps,
		elapsed.Milliseconds(), pvString(s.pv[0])))
}

// sendPeriodicUpdate throttles node statistics to the sink during long
// searches.
func (s *Search) sendPeriodicUpdate(pos *board.Position) {
	if time.Since(s.uciTicker) < uciUpdateInterval {
		return
	}
	s.uciTicker = time.Now()

	elapsed := s.tm.elapsed()
	nps := s.counters.NodesVisited * 1000 / (elapsed.Milliseconds() + 1)
	s.sendInfo(fmt.Sprintf("depth %d seldepth %d nodes %d nps %d time %d hashfull %d",
		s.counters.CurrentIterationDepth, s.counters.CurrentExtraDepth,
		s.counters.NodesVisited, nps, elapsed.Milliseconds(), s.tt.Hashfull()))
	s.sendInfo(fmt.Sprintf("currmove %s currmovenumber %d",
		s.counters.CurrentRootMove, s.counters.CurrentRootMoveNumber))
}
