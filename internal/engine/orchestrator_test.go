package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/petrelchess/petrel/internal/board"
)

// recordSink captures the output of the search for inspection.
type recordSink struct {
	mu     sync.Mutex
	infos  []string
	best   []board.Move
	ponder []board.Move
}

func (r *recordSink) SendInfo(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, line)
}

func (r *recordSink) SendBestMove(best, ponder board.Move) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.best = append(r.best, best)
	r.ponder = append(r.ponder, ponder)
}

func (r *recordSink) bestMoves() []board.Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]board.Move(nil), r.best...)
}

func TestStopDuringInfiniteSearch(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())

	if err := s.StartSearch(pos, SearchMode{Infinite: true}); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	if !s.IsSearching() {
		t.Fatal("IsSearching should be true right after start")
	}

	time.Sleep(500 * time.Millisecond)

	begin := time.Now()
	s.StopSearch()
	if stopTook := time.Since(begin); stopTook > 100*time.Millisecond {
		t.Errorf("stop took %v, want under 100ms", stopTook)
	}
	if s.IsSearching() {
		t.Error("IsSearching should be false after stop")
	}
	requireLegal(t, pos, s.LastResult().BestMove)
}

func TestStopIsIdempotent(t *testing.T) {
	s := newTestSearch(t, DefaultConfig())
	// No search running: logged, no panic, no deadlock.
	s.StopSearch()
	s.StopSearch()
}

func TestStartWhileRunning(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())

	if err := s.StartSearch(pos, SearchMode{Infinite: true}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer s.StopSearch()

	if err := s.StartSearch(pos, SearchMode{Depth: 2}); err != ErrSearchRunning {
		t.Errorf("second start: got %v, want ErrSearchRunning", err)
	}
}

func TestStartAfterFinishedSearch(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())

	runSearch(t, s, pos, SearchMode{Depth: 2})

	// The previous worker exited on its own; a new search must start.
	if err := s.StartSearch(pos, SearchMode{Depth: 2}); err != nil {
		t.Fatalf("restart after finished search: %v", err)
	}
	s.WaitWhileSearching()
}

func TestNilPositionRejected(t *testing.T) {
	s := newTestSearch(t, DefaultConfig())
	if err := s.StartSearch(nil, SearchMode{Depth: 2}); err != ErrInvalidPosition {
		t.Errorf("nil position: got %v, want ErrInvalidPosition", err)
	}
}

func TestPonderHoldsResultUntilHit(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())
	sink := &recordSink{}
	s.SetSink(sink)

	// A shallow ponder search finishes long before the hit arrives.
	if err := s.StartSearch(pos, SearchMode{Ponder: true, Depth: 3}); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	s.WaitWhileSearching()

	if moves := sink.bestMoves(); len(moves) != 0 {
		t.Fatalf("ponder result delivered early: %v", moves)
	}

	s.PonderHit()

	moves := sink.bestMoves()
	if len(moves) != 1 {
		t.Fatalf("after ponderhit: %d best moves delivered, want 1", len(moves))
	}
	requireLegal(t, pos, moves[0])
}

func TestPonderMissDeliversOnStop(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())
	sink := &recordSink{}
	s.SetSink(sink)

	// Without a depth limit the ponder search keeps running until stop.
	if err := s.StartSearch(pos, SearchMode{Ponder: true, WhiteTime: 10 * time.Second}); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	s.StopSearch()

	if moves := sink.bestMoves(); len(moves) != 1 {
		t.Errorf("ponder miss: %d best moves delivered, want 1", len(moves))
	}
}

func TestPonderHitSwitchesToClock(t *testing.T) {
	pos := board.StartingPosition()
	s := newTestSearch(t, DefaultConfig())
	sink := &recordSink{}
	s.SetSink(sink)

	mode := SearchMode{Ponder: true, WhiteTime: 2 * time.Second, BlackTime: 2 * time.Second}
	if err := s.StartSearch(pos, mode); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	s.PonderHit()

	// Now time-controlled: roughly (2s-1s)/40 per move, so it must come
	// back well within a second.
	deadline := time.Now().Add(2 * time.Second)
	for s.IsSearching() {
		if time.Now().After(deadline) {
			s.StopSearch()
			t.Fatal("search kept running after ponderhit re-armed the clock")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if moves := sink.bestMoves(); len(moves) != 1 {
		t.Errorf("after ponderhit: %d best moves delivered, want 1", len(moves))
	}
}

func TestSetHashSize(t *testing.T) {
	s := newTestSearch(t, DefaultConfig())

	if err := s.SetHashSize(0); err != ErrTableSize {
		t.Errorf("hash 0: got %v, want ErrTableSize", err)
	}
	if err := s.SetHashSize(2); err != nil {
		t.Fatalf("hash 2: %v", err)
	}
	if got := s.TranspositionTable().Capacity(); got != 2*1024*1024/entryStride {
		t.Errorf("capacity = %d after resize", got)
	}

	if err := s.StartSearch(board.StartingPosition(), SearchMode{Infinite: true}); err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	defer s.StopSearch()
	if err := s.SetHashSize(4); err != ErrSearchRunning {
		t.Errorf("resize during search: got %v, want ErrSearchRunning", err)
	}
}

func TestPonderHitWithoutPonder(t *testing.T) {
	s := newTestSearch(t, DefaultConfig())
	// Logged and ignored.
	s.PonderHit()
}
