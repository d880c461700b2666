package engine

import (
	"testing"

	"github.com/petrelchess/petrel/internal/board"
)

func newTestTable(t *testing.T) *TransTable {
	t.Helper()
	tt, err := NewTransTable(1)
	if err != nil {
		t.Fatalf("NewTransTable: %v", err)
	}
	return tt
}

func TestTableSizeRejected(t *testing.T) {
	if _, err := NewTransTable(0); err != ErrTableSize {
		t.Errorf("size 0: got %v, want ErrTableSize", err)
	}
	tt, err := NewTransTable(1)
	if err != nil {
		t.Fatalf("size 1: %v", err)
	}
	if tt.Capacity() != 1024*1024/entryStride {
		t.Errorf("capacity = %d, want %d", tt.Capacity(), 1024*1024/entryStride)
	}
}

func TestStoreProbeRoundTrip(t *testing.T) {
	tt := newTestTable(t)
	move := board.NewMove(board.E2, board.E4, board.WhitePawn, board.NoPiece)

	tt.Store(42, 123, BoundExact, 7, move, true)

	entry, ok := tt.Probe(42)
	if !ok {
		t.Fatal("probe after store missed")
	}
	if entry.Value != 123 || entry.Bound != BoundExact || entry.Depth != 7 ||
		entry.Move != move || !entry.MateThreat {
		t.Errorf("entry fields changed: %+v", entry)
	}
}

func TestProbeFreshensAge(t *testing.T) {
	tt := newTestTable(t)
	tt.Store(42, 10, BoundExact, 3, board.NoMove, false)
	tt.AgeAll()

	if e := *tt.slot(42); e.Age != 2 {
		t.Fatalf("age after store+ageAll = %d, want 2", e.Age)
	}
	tt.Probe(42)
	tt.Probe(42)
	if e := *tt.slot(42); e.Age != 0 {
		t.Errorf("age after two probes = %d, want 0", e.Age)
	}
	tt.Probe(42)
	if e := *tt.slot(42); e.Age != 0 {
		t.Errorf("age must saturate at 0, got %d", e.Age)
	}
}

func TestCollisionReplacement(t *testing.T) {
	tt := newTestTable(t)
	capacity := uint64(tt.Capacity())
	key1 := uint64(7)
	key2 := key1 + capacity // same slot, different position

	tt.Store(key1, 10, BoundExact, 5, board.NoMove, false)

	// Fresh entry (age 0 after a probe): a different position may not evict.
	tt.Probe(key1)
	tt.Store(key2, 20, BoundExact, 9, board.NoMove, false)
	if e, ok := tt.Probe(key1); !ok || e.Value != 10 {
		t.Error("fresh entry was evicted by a collision")
	}

	// Aged entry with deeper incoming result: evict.
	tt.AgeAll()
	tt.Store(key2, 20, BoundExact, 9, board.NoMove, false)
	if _, ok := tt.Probe(key1); ok {
		t.Error("aged entry should have been replaced")
	}
	if e, ok := tt.Probe(key2); !ok || e.Value != 20 {
		t.Error("colliding store did not land")
	}

	// Shallower incoming result never evicts a different position.
	tt.AgeAll()
	tt.Store(key1, 30, BoundExact, 3, board.NoMove, false)
	if _, ok := tt.Probe(key1); ok {
		t.Error("shallower collision must not replace")
	}
}

func TestSamePositionReplacement(t *testing.T) {
	tt := newTestTable(t)
	m1 := board.NewMove(board.G1, board.F3, board.WhiteKnight, board.NoPiece)
	m2 := board.NewMove(board.B1, board.C3, board.WhiteKnight, board.NoPiece)

	tt.Store(99, 50, BoundExact, 5, m1, false)

	// Equal depth must not downgrade an exact score to a bound.
	tt.Store(99, 70, BoundLower, 5, m2, false)
	e, _ := tt.Probe(99)
	if e.Value != 50 || e.Bound != BoundExact {
		t.Errorf("exact score was downgraded: %+v", e)
	}
	if e.Move != m2 {
		t.Error("best move should still be refreshed at equal depth")
	}

	// Deeper result replaces, but NoMove never wipes a stored move.
	tt.Store(99, 80, BoundUpper, 6, board.NoMove, false)
	e, _ = tt.Probe(99)
	if e.Value != 80 || e.Depth != 6 || e.Bound != BoundUpper {
		t.Errorf("deeper store did not replace: %+v", e)
	}
	if e.Move != m2 {
		t.Error("NoMove overwrote the stored best move")
	}

	// Shallower result keeps the entry, only fills a missing move.
	tt.Store(99, 5, BoundExact, 2, m1, false)
	e, _ = tt.Probe(99)
	if e.Value != 80 || e.Depth != 6 {
		t.Errorf("shallower store replaced a deeper entry: %+v", e)
	}
}

func TestMateScoreRoundTrip(t *testing.T) {
	tt := newTestTable(t)

	// A mate found at ply 5 is stored relative to that node and must read
	// back as distance-to-mate from any other ply.
	plyStore := 5
	value := -ValueCheckmate + plyStore

	tt.Store(7, valueToTT(value, plyStore), BoundExact, 3, board.NoMove, false)
	entry, _ := tt.Probe(7)

	for _, plyRead := range []int{0, 3, 9} {
		got := valueFromTT(int(entry.Value), plyRead)
		want := -ValueCheckmate + plyRead
		if got != want {
			t.Errorf("ply %d: adjusted value = %d, want %d", plyRead, got, want)
		}
	}
}

func TestClear(t *testing.T) {
	tt := newTestTable(t)
	tt.Store(1, 1, BoundExact, 1, board.NoMove, false)
	tt.Store(2, 2, BoundLower, 2, board.NoMove, false)
	tt.Clear()
	if tt.Used() != 0 || tt.Hits() != 0 {
		t.Error("clear left residue")
	}
	if _, ok := tt.Probe(1); ok {
		t.Error("probe hit after clear")
	}
}
