package board

import "testing"

// perft counts leaf nodes of the legal move tree, the standard way to
// verify move generation.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}
	var nodes int64
	for _, m := range moves {
		p.MakeMove(m)
		nodes += perft(p, depth-1)
		p.UndoMove()
	}
	return nodes
}

func TestPerftStartingPosition(t *testing.T) {
	pos := StartingPosition()

	expected := []int64{1, 20, 400, 8902, 197281, 4865609}
	maxDepth := 4
	if !testing.Short() {
		maxDepth = 5
	}
	for depth := 1; depth <= maxDepth; depth++ {
		if got := perft(pos, depth); got != expected[depth] {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected[depth])
		}
	}
}

func TestPerftKiwipete(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	expected := []int64{1, 48, 2039, 97862}
	for depth := 1; depth <= 3; depth++ {
		if got := perft(pos, depth); got != expected[depth] {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected[depth])
		}
	}
}

func TestPerftEnPassantEdgeCases(t *testing.T) {
	pos, err := ParseFEN("8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	expected := []int64{1, 14, 191, 2812, 43238}
	for depth := 1; depth <= 4; depth++ {
		if got := perft(pos, depth); got != expected[depth] {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected[depth])
		}
	}
}

// The captured pawn and the capturing pawn leave the same rank: an en
// passant capture may expose the king to a rook behind both.
func TestEnPassantHorizontalPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	for _, m := range pos.LegalMoves() {
		if m.Type() == EnPassant {
			t.Errorf("en passant capture %v should be illegal here", m)
		}
	}
	if got := perft(pos, 1); got != 6 {
		t.Errorf("perft(1) = %d, want 6", got)
	}
	if got := perft(pos, 2); got != 94 {
		t.Errorf("perft(2) = %d, want 94", got)
	}
}
