package engine

import (
	"github.com/petrelchess/petrel/internal/board"
)

// Readability constants for the recursive search.
const (
	doNull = true
	noNull = false
	pvNode = true
	npNode = false
)

// checkNodeBudget reports whether the node budget is exhausted.
func (s *Search) checkNodeBudget() bool {
	return s.mode.Nodes > 0 && s.counters.NodesVisited >= s.mode.Nodes
}

// shouldStop latches and reports every cooperative stop condition: the
// external stop flag, the hard deadline and the node budget.
func (s *Search) shouldStop() bool {
	if s.stop.Load() {
		return true
	}
	if s.tm.hardReached() || s.checkNodeBudget() {
		s.stop.Store(true)
		return true
	}
	return false
}

// evaluate scores the current position. In perft mode it classifies the
// leaf instead and counts it as exactly one node.
func (s *Search) evaluate(pos *board.Position) int {
	s.counters.LeafPositionsEvaluated++

	if s.perft {
		last := pos.LastMove()
		if last.IsCapture() {
			s.counters.CaptureCount++
		}
		if last.Type() == board.EnPassant {
			s.counters.EnPassantCount++
		}
		if pos.InCheck() {
			s.counters.CheckCount++
			if !pos.HasLegalMoves() {
				s.counters.CheckmateCount++
			}
		}
		return 1
	}
	return s.eval.Evaluate(pos)
}

// storeTT writes a node result unless the table is disabled or the
// search is being torn down. Mate scores are converted to distance from
// the storing node; probes re-offset them by the reading ply.
func (s *Search) storeTT(pos *board.Position, value int, bound Bound, depth, ply int, bestMove board.Move, mateThreat bool) {
	if !s.config.UseTranspositionTable || s.perft || s.stop.Load() {
		return
	}
	s.tt.Store(pos.ZobristKey(), valueToTT(value, ply), bound, depth, bestMove, mateThreat)
}

// pushKiller records a quiet move that refuted a sibling, front of the
// per-ply list, bounded by the configured capacity.
func (s *Search) pushKiller(ply int, m board.Move) {
	ks := s.killers[ply]
	for i, k := range ks {
		if k == m {
			// Move to front, keep the rest stable.
			copy(ks[1:i+1], ks[:i])
			ks[0] = m
			return
		}
	}
	if len(ks) < s.config.KillerMoves {
		ks = append(ks, board.NoMove)
	}
	copy(ks[1:], ks)
	ks[0] = m
	s.killers[ply] = ks
}

// savePV sets pv[ply] to move followed by pv[ply+1].
func (s *Search) savePV(ply int, move board.Move) {
	child := s.pv[ply+1]
	line := append(s.pv[ply][:0], move)
	s.pv[ply] = append(line, child...)
}

// search is the recursive negamax alpha-beta. It returns the negamax
// score of the position, writes the principal variation into pv[ply] and
// updates counters and the transposition table. On a cooperative stop it
// returns ValueMin, which callers must not trust as a score.
func (s *Search) search(pos *board.Position, depth, ply, alpha, beta int, isPV, allowNull bool) int {
	root := ply == 0

	if ply > s.counters.CurrentSearchDepth {
		s.counters.CurrentSearchDepth = ply
	}
	if ply > s.counters.CurrentExtraDepth {
		s.counters.CurrentExtraDepth = ply
	}

	// Leaf or depth exhaustion; also drop into quiescence one ply past
	// the iteration depth so extensions cannot explode the tree.
	if depth <= 0 || ply >= MaxSearchDepth-1 || ply-1 >= s.counters.CurrentIterationDepth {
		return s.qsearch(pos, ply, alpha, beta, isPV)
	}

	if s.shouldStop() {
		return ValueMin
	}

	// Draw handling. Inside the tree a single repetition already counts
	// as a draw, which detects repetitions earlier without weakening the
	// search.
	if !s.perft {
		if root {
			if pos.FiftyMoves() || pos.Repetitions(2) {
				return ValueDraw
			}
		} else if pos.FiftyMoves() || pos.Repetitions(1) {
			return contempt(pos, s.config.ContemptFactor)
		}
	}

	// Mate distance pruning: a mate further away than one already proven
	// cannot change the result. Disabled at root.
	if s.config.UseMDP && !s.perft && !root {
		alpha = max(alpha, -ValueCheckmate+ply)
		beta = min(beta, ValueCheckmate-ply)
		if alpha >= beta {
			s.counters.MateDistancePrunings++
			return alpha
		}
	}

	// Transposition table lookup. The best move and the mate threat flag
	// are usable regardless of entry depth.
	ttMove := board.NoMove
	if s.config.UseTranspositionTable && !s.perft {
		if entry, ok := s.tt.Probe(pos.ZobristKey()); ok {
			s.counters.TTHits++
			ttMove = entry.Move
			s.mateThreat[ply] = entry.MateThreat

			if int(entry.Depth) >= depth {
				value := valueFromTT(int(entry.Value), ply)
				cut := false
				switch {
				case entry.Bound == BoundExact:
					cut = true
				case !isPV && entry.Bound == BoundUpper && value <= alpha:
					cut = true
				case !isPV && entry.Bound == BoundLower && value >= beta:
					cut = true
				}
				if cut {
					s.counters.TTCuts++
					return value
				}
			}
			s.counters.TTIgnored++
		} else {
			s.counters.TTMisses++
		}
	}

	searchedMoves := 0
	ttBound := BoundUpper
	bestValue := ValueMin
	var bestMove board.Move
	if root {
		bestMove = s.currentBestRootMove
	} else {
		bestMove = ttMove
		s.pv[ply] = s.pv[ply][:0]
	}

	// Forward pruning that can return a beta-bound value before any move
	// is made: reverse futility, null move, razoring.
	if !s.perft && !root && !isPV && !pos.InCheck() && allowNull {
		staticEval := s.evaluate(pos)

		// Reverse futility pruning at the frontier.
		if s.config.UseRFP && depth == 1 {
			margin := s.config.RFPMargin * depth
			if staticEval-margin >= beta {
				s.counters.RFPPrunings++
				s.storeTT(pos, staticEval, BoundLower, depth, ply, bestMove, s.mateThreat[ply])
				return staticEval - margin
			}
		}

		// Null move pruning: give the opponent a free move; still being
		// over beta proves the position too good to reach.
		if s.config.UseNMP &&
			depth >= s.config.NMPDepth &&
			pos.HasNonPawnMaterial(pos.SideToMove()) &&
			!s.mateThreat[ply] &&
			staticEval >= beta {

			r := 2
			if depth > 6 {
				r = 3
			}
			if s.config.UseVerifyNMP {
				r++
			}

			pos.MakeNullMove()
			nullValue := -s.search(pos, depth-r, ply+1, -beta, -beta+1, npNode, noNull)
			pos.UndoNullMove()

			if isCheckmateValue(nullValue) {
				s.mateThreat[ply] = true
			}

			if s.config.UseVerifyNMP && depth > s.config.NMPVerificationDepth && nullValue >= beta {
				s.counters.NullMoveVerifications++
				nullValue = s.search(pos, depth-s.config.NMPVerificationDepth, ply, alpha, beta, npNode, noNull)
			}

			if nullValue >= beta {
				s.counters.NullMovePrunings++
				s.storeTT(pos, nullValue, BoundLower, depth, ply, bestMove, s.mateThreat[ply])
				return nullValue
			}
		}

		// Razoring: hopeless positions drop straight into quiescence.
		if s.config.UseRazorPruning &&
			depth <= s.config.RazorDepth &&
			!s.mateThreat[ply] &&
			!isCheckmateValue(alpha) &&
			staticEval+s.config.RazorMargin <= alpha {
			s.counters.RazorReductions++
			return s.qsearch(pos, ply, alpha, beta, npNode)
		}
	}

	// Internal iterative deepening: PV node without a move to try first
	// runs a reduced search to populate the PV.
	if s.config.UseIID && !s.perft && isPV && bestMove == board.NoMove {
		s.counters.IIDSearches++
		s.search(pos, depth-s.config.IIDReduction, ply, alpha, beta, pvNode, doNull)
		if len(s.pv[ply]) > 0 {
			bestMove = s.pv[ply][0]
		}
	}

	// Prepare the move source. Root moves were generated by the driver.
	if !root {
		picker := &s.pickers[ply]
		picker.setPosition(pos, false)
		if s.config.UseKillerMoves && len(s.killers[ply]) > 0 {
			picker.setKillers(s.killers[ply])
		}
		if s.config.UsePVSOrdering && bestMove != board.NoMove {
			picker.setPVMove(bestMove)
		}
	}

	if s.stop.Load() {
		return ValueMin
	}

	// Move loop.
	i := 0
	for {
		var move board.Move
		if root {
			if i >= len(s.rootMoves) {
				break
			}
			move = s.rootMoves[i]
		} else {
			move = s.pickers[ply].nextMove()
			if move == board.NoMove {
				break
			}
		}
		i++

		givesCheck := pos.GivesCheck(move)

		if root {
			s.counters.CurrentRootMove = move
			s.counters.CurrentRootMoveNumber = i
		}

		// Minor promotion pruning: under-promotions other than knight
		// are redundant outside stalemate tricks.
		if s.config.UseMPP && !s.perft {
			if move.Type() == board.Promotion &&
				move.Promotion() != board.Queen &&
				move.Promotion() != board.Knight {
				s.counters.MinorPromotionPrunings++
				continue
			}
		}

		newDepth := depth - 1
		extension := 0

		// Extensions for forcing or structurally critical moves.
		if s.config.UseExtensions && !s.perft {
			if s.mateThreat[ply] ||
				move.Type() == board.Promotion ||
				move.Type() == board.Castling ||
				givesCheck ||
				(move.Piece().Type() == board.Pawn && move.To().RelativeRank(pos.SideToMove()) == 6) {
				extension = 1
				newDepth += extension
			}
		}

		// Per-move forward pruning at shallow depths, never on PV nodes,
		// extended moves or while in check.
		if !s.perft && !isPV && extension == 0 && !pos.InCheck() {
			us := pos.SideToMove()
			materialEval := pos.Material(us) - pos.Material(us.Other())
			moveGain := 0
			if move.IsCapture() {
				moveGain = move.Captured().Value()
			}

			// Limited razoring three plies from the frontier.
			if s.config.UseLimitedRazoring && depth == 3 {
				if materialEval+moveGain+board.Queen.Value() <= alpha {
					s.counters.LimitedRazorReductions++
					newDepth = 2
				}
			}

			// Extended futility pruning two plies out.
			if s.config.UseExtendedFutilityPruning && depth == 2 {
				if materialEval+moveGain+board.Rook.Value() <= alpha {
					s.counters.ExtFutilityPrunings++
					continue
				}
			}

			// Futility pruning at the frontier.
			if s.config.UseFutilityPruning && depth == 1 {
				if materialEval+moveGain+3*board.Pawn.Value() <= alpha {
					if materialEval+moveGain > bestValue {
						bestValue = materialEval + moveGain
					}
					s.counters.FutilityPrunings++
					continue
				}
			}

			// Late move reduction for late, presumably weaker moves.
			if s.config.UseLMR &&
				depth >= s.config.LMRMinDepth &&
				searchedMoves >= s.config.LMRMinMoves {
				s.counters.LMRReductions++
				newDepth -= s.config.LMRReduction
			}
		}

		// Make the move; root moves are legal by construction.
		pos.MakeMove(move)
		if !root && pos.LeftKingInCheck() {
			pos.UndoMove()
			continue
		}
		s.counters.NodesVisited++
		s.sendPeriodicUpdate(pos)

		// Principal variation search: the first move runs with the full
		// window, later moves prove themselves against a null window
		// first and are re-searched only if they beat alpha.
		var value int
		if !s.config.UsePVS || s.perft || searchedMoves == 0 {
			value = -s.search(pos, newDepth, ply+1, -beta, -alpha, isPV, doNull)
		} else {
			value = -s.search(pos, newDepth, ply+1, -alpha-1, -alpha, npNode, doNull)
			if value > alpha && value < beta && !s.stop.Load() {
				if root {
					s.counters.PVSRootResearches++
				} else {
					s.counters.PVSResearches++
				}
				value = -s.search(pos, newDepth, ply+1, -beta, -alpha, pvNode, doNull)
			} else {
				if root {
					s.counters.PVSRootCutoffs++
				} else {
					s.counters.PVSCutoffs++
				}
			}
		}

		searchedMoves++
		pos.UndoMove()

		// In perft mode no value or window handling applies.
		if s.perft {
			continue
		}

		// A stopped search may not use the value of the aborted subtree,
		// but keeps everything committed so far.
		if s.stop.Load() {
			break
		}

		if root {
			s.rootValues[i-1] = value
		}

		if value > bestValue {
			bestValue = value
			bestMove = move

			// Fail high: the opponent avoids this node altogether.
			if value >= beta && s.config.UseAlphaBetaPruning {
				if s.config.UseKillerMoves && !move.IsCapture() {
					s.pushKiller(ply, move)
				}
				s.counters.Prunings++
				if i-1 < maxMoves {
					s.counters.BetaCutoffs[i-1]++
				}
				ttBound = BoundLower
				break
			}

			// New best line for this ply.
			if value > alpha {
				s.savePV(ply, move)
				ttBound = BoundExact
				alpha = value
				if root {
					s.currentBestRootMove = move
					s.counters.BestMoveChanges++
				}
			}
		}

		if root && (s.stop.Load() || s.tm.softReached() || s.tm.hardReached()) {
			break
		}
	}

	if !root {
		s.counters.MovesGenerated += int64(s.pickers[ply].generated())
	}

	// A stopped node's partial value is discarded.
	if s.stop.Load() {
		return ValueMin
	}

	// No legal move searched: mate or stalemate.
	if !root && searchedMoves == 0 && !s.stop.Load() {
		s.counters.NonLeafPositionsEvaluated++
		if pos.InCheck() {
			bestValue = -ValueCheckmate + ply
		} else {
			bestValue = ValueDraw
		}
	}

	s.storeTT(pos, bestValue, ttBound, depth, ply, bestMove, s.mateThreat[ply])
	return bestValue
}

// qsearch extends the search along noisy moves (captures, promotions and
// check evasions) until the position is quiet, using the static
// evaluation as a standing lower bound.
func (s *Search) qsearch(pos *board.Position, ply, alpha, beta int, isPV bool) int {
	if ply > s.counters.CurrentExtraDepth {
		s.counters.CurrentExtraDepth = ply
	}

	if s.perft {
		return s.evaluate(pos)
	}

	if pos.FiftyMoves() || pos.Repetitions(1) {
		return contempt(pos, s.config.ContemptFactor)
	}

	if !s.config.UseQuiescence || ply >= MaxSearchDepth-1 {
		return s.evaluate(pos)
	}

	if s.shouldStop() {
		return ValueMin
	}

	// Mate distance pruning, same bound tightening as the main search.
	if s.config.UseMDP {
		alpha = max(alpha, -ValueCheckmate+ply)
		beta = min(beta, ValueCheckmate-ply)
		if alpha >= beta {
			s.counters.MateDistancePrunings++
			return alpha
		}
	}

	ttMove := board.NoMove
	if s.config.UseTranspositionTable {
		if entry, ok := s.tt.Probe(pos.ZobristKey()); ok {
			s.counters.TTHits++
			ttMove = entry.Move
			s.mateThreat[ply] = entry.MateThreat

			value := valueFromTT(int(entry.Value), ply)
			cut := false
			switch {
			case entry.Bound == BoundExact:
				cut = true
			case !isPV && entry.Bound == BoundUpper && value <= alpha:
				cut = true
			case !isPV && entry.Bound == BoundLower && value >= beta:
				cut = true
			}
			if cut {
				s.counters.TTCuts++
				return value
			}
			s.counters.TTIgnored++
		} else {
			s.counters.TTMisses++
		}
	}

	ttBound := BoundUpper
	bestValue := ValueMin
	bestMove := ttMove
	searchedMoves := 0
	s.pv[ply] = s.pv[ply][:0]

	// Stand pat: assume at least one quiet move keeps the static score.
	if !pos.InCheck() {
		standPat := s.evaluate(pos)
		bestValue = standPat
		if standPat >= beta {
			s.storeTT(pos, standPat, BoundLower, 0, ply, board.NoMove, s.mateThreat[ply])
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	picker := &s.pickers[ply]
	picker.setPosition(pos, true)
	if s.config.UsePVSOrdering && bestMove != board.NoMove {
		picker.setPVMove(bestMove)
	}

	for move := picker.nextMove(); move != board.NoMove; move = picker.nextMove() {
		// Minor promotion pruning, as in the main search.
		if s.config.UseMPP {
			if move.Type() == board.Promotion &&
				move.Promotion() != board.Queen &&
				move.Promotion() != board.Knight {
				s.counters.MinorPromotionPrunings++
				continue
			}
		}

		// Quiescence futility (delta) pruning: if even the captured
		// piece plus a two-pawn margin cannot lift the material balance
		// above alpha, skip the move. Promotions, far pawn pushes and
		// checking moves are exempt.
		if s.config.UseQFutilityPruning &&
			!isPV &&
			!pos.InCheck() &&
			move.Type() != board.Promotion &&
			!(move.Piece().Type() == board.Pawn && move.To().RelativeRank(pos.SideToMove()) == 6) &&
			pos.HasNonPawnMaterial(pos.SideToMove()) &&
			!pos.GivesCheck(move) {

			us := pos.SideToMove()
			materialEval := pos.Material(us) - pos.Material(us.Other())
			moveGain := 0
			if move.IsCapture() {
				moveGain = move.Captured().Value()
			}
			value := materialEval + moveGain + 2*board.Pawn.Value()
			if value <= alpha {
				s.counters.QFutilityPrunings++
				if value > bestValue {
					bestValue = value
				}
				continue
			}
		}

		pos.MakeMove(move)
		if pos.LeftKingInCheck() {
			pos.UndoMove()
			continue
		}
		s.counters.NodesVisited++
		s.sendPeriodicUpdate(pos)

		value := -s.qsearch(pos, ply+1, -beta, -alpha, isPV)
		searchedMoves++
		pos.UndoMove()

		if s.stop.Load() {
			break
		}

		if value > bestValue {
			bestValue = value
			bestMove = move

			if value >= beta && s.config.UseAlphaBetaPruning {
				s.counters.Prunings++
				ttBound = BoundLower
				break
			}
			if value > alpha {
				s.savePV(ply, move)
				ttBound = BoundExact
				alpha = value
			}
		}
	}

	s.counters.MovesGenerated += int64(picker.generated())

	// In check with no legal reply: mated here.
	if searchedMoves == 0 && pos.InCheck() && !s.stop.Load() {
		s.counters.NonLeafPositionsEvaluated++
		bestValue = -ValueCheckmate + ply
	}

	s.storeTT(pos, bestValue, ttBound, 0, ply, bestMove, s.mateThreat[ply])
	return bestValue
}
