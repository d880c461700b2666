package engine

import (
	"testing"

	"github.com/petrelchess/petrel/internal/board"
)

func newTestSearch(t *testing.T, config Config) *Search {
	t.Helper()
	config.HashSizeMB = 16
	config.UseBook = false
	s, err := NewSearch(config)
	if err != nil {
		t.Fatalf("NewSearch: %v", err)
	}
	return s
}

func mustPosition(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func runSearch(t *testing.T, s *Search, pos *board.Position, mode SearchMode) SearchResult {
	t.Helper()
	if err := s.StartSearch(pos, mode); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	s.WaitWhileSearching()
	return s.LastResult()
}

func requireLegal(t *testing.T, pos *board.Position, m board.Move) {
	t.Helper()
	for _, legal := range pos.LegalMoves() {
		if legal == m {
			return
		}
	}
	t.Fatalf("move %s is not legal in %s", m, pos.ToFEN())
}

func TestMateInTwo(t *testing.T) {
	pos := mustPosition(t, "1r3rk1/1pnnq1bR/p1pp2B1/P2P1p2/1PP1pP2/2B3P1/5PK1/2Q4R w - - 0 1")
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Mate: 2})

	requireLegal(t, pos, result.BestMove)
	if want := ValueCheckmate - 3; result.Value != want {
		t.Errorf("mate in 2: value = %d, want %d", result.Value, want)
	}
}

func TestMateInFour(t *testing.T) {
	if testing.Short() {
		t.Skip("deep mate search")
	}
	pos := mustPosition(t, "r2r1n2/pp2bk2/2p1p2p/3q4/3PN1QP/2P3R1/P4PP1/5RK1 w - - 0 1")
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Mate: 4})

	requireLegal(t, pos, result.BestMove)
	if want := ValueCheckmate - 7; result.Value != want {
		t.Errorf("mate in 4: value = %d, want %d", result.Value, want)
	}
}

func TestFixedDepth(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Depth: 4})

	requireLegal(t, pos, result.BestMove)
	if got := s.Counters().CurrentIterationDepth; got != 4 {
		t.Errorf("iteration depth at termination = %d, want 4", got)
	}
}

func TestFixedNodes(t *testing.T) {
	budget := int64(5_000_000)
	if testing.Short() {
		budget = 300_000
	}
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Nodes: budget})

	requireLegal(t, pos, result.BestMove)
	got := s.Counters().NodesVisited
	if got < budget || got > budget+64 {
		t.Errorf("nodes visited = %d, want %d with minimal overshoot", got, budget)
	}
}

func TestStalemateTerminal(t *testing.T) {
	pos := mustPosition(t, "7k/5K2/6Q1/8/8/8/8/8 b - - 0 1")
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Depth: 4})

	if result.BestMove != board.NoMove {
		t.Errorf("stalemate: best move = %s, want none", result.BestMove)
	}
	if result.Value != ValueDraw {
		t.Errorf("stalemate: value = %d, want %d", result.Value, ValueDraw)
	}
}

func TestCheckmateTerminal(t *testing.T) {
	pos := mustPosition(t, "R5k1/5ppp/8/8/8/8/8/4K3 b - - 0 1")
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Depth: 4})

	if result.BestMove != board.NoMove {
		t.Errorf("checkmate: best move = %s, want none", result.BestMove)
	}
	if result.Value != -ValueCheckmate {
		t.Errorf("checkmate: value = %d, want %d", result.Value, -ValueCheckmate)
	}
}

func TestSearchDeterminism(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"
	mode := SearchMode{Depth: 5}

	first := runSearch(t, newTestSearch(t, DefaultConfig()), mustPosition(t, fen), mode)
	second := runSearch(t, newTestSearch(t, DefaultConfig()), mustPosition(t, fen), mode)

	if first.BestMove != second.BestMove || first.Value != second.Value {
		t.Errorf("identical searches diverged: %s/%d vs %s/%d",
			first.BestMove, first.Value, second.BestMove, second.Value)
	}
}

func TestPVHeadIsBestMove(t *testing.T) {
	pos := mustPosition(t, "rnbqkb1r/pp1ppppp/5n2/2p5/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 0 3")
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Depth: 5})

	pv := s.PrincipalVariation()
	if len(pv) == 0 {
		t.Fatal("empty principal variation")
	}
	if pv[0] != result.BestMove {
		t.Errorf("pv head %s differs from best move %s", pv[0], result.BestMove)
	}
	if result.PonderMove != board.NoMove && len(pv) > 1 && pv[1] != result.PonderMove {
		t.Errorf("ponder move %s differs from pv[1] %s", result.PonderMove, pv[1])
	}
}

func TestNodeCountGrowsWithDepth(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"

	shallow := newTestSearch(t, DefaultConfig())
	runSearch(t, shallow, mustPosition(t, fen), SearchMode{Depth: 3})
	deep := newTestSearch(t, DefaultConfig())
	runSearch(t, deep, mustPosition(t, fen), SearchMode{Depth: 5})

	if deep.Counters().NodesVisited < shallow.Counters().NodesVisited {
		t.Errorf("depth 5 visited %d nodes, depth 3 visited %d",
			deep.Counters().NodesVisited, shallow.Counters().NodesVisited)
	}
}

// Window strategies may change the node count but never the score.
func TestAspirationDoesNotChangeScore(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	mode := SearchMode{Depth: 5}

	for _, fen := range fens {
		with := DefaultConfig()
		without := DefaultConfig()
		without.UseAspirationWindow = false

		a := runSearch(t, newTestSearch(t, with), mustPosition(t, fen), mode)
		b := runSearch(t, newTestSearch(t, without), mustPosition(t, fen), mode)
		if a.Value != b.Value {
			t.Errorf("%s: aspiration on/off scores differ: %d vs %d", fen, a.Value, b.Value)
		}
	}
}

func TestPVSDoesNotChangeScore(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	}
	mode := SearchMode{Depth: 4}

	for _, fen := range fens {
		with := DefaultConfig()
		without := DefaultConfig()
		without.UsePVS = false

		a := runSearch(t, newTestSearch(t, with), mustPosition(t, fen), mode)
		b := runSearch(t, newTestSearch(t, without), mustPosition(t, fen), mode)
		if a.Value != b.Value {
			t.Errorf("%s: PVS on/off scores differ: %d vs %d", fen, a.Value, b.Value)
		}
	}
}

func TestRestrictedRootMoves(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())

	result := runSearch(t, s, pos, SearchMode{Depth: 3, Moves: []string{"a2a3", "h2h4"}})

	if got := result.BestMove.String(); got != "a2a3" && got != "h2h4" {
		t.Errorf("restricted search played %s, allowed a2a3/h2h4", got)
	}
}
