package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petrelchess/petrel/internal/board"
	"github.com/petrelchess/petrel/internal/book"
)

// Sink receives search output destined for the client: periodic info
// lines and the final best move. Implementations must tolerate calls
// from the search worker goroutine.
type Sink interface {
	SendInfo(line string)
	SendBestMove(best, ponder board.Move)
}

// Search owns one search worker at a time and everything it needs:
// configuration, transposition table, evaluator, opening book, per-ply
// scratch buffers and the result of the last finished search.
//
// The control methods (StartSearch, StopSearch, PonderHit) run on the
// caller's goroutine; the search itself runs on a dedicated worker
// goroutine. The shared stop flag is the only hot cross-goroutine state;
// result delivery is serialized by a mutex so a held ponder result is
// delivered exactly once.
type Search struct {
	config Config
	eval   Evaluator
	book   *book.Book
	sink   Sink

	tt       *TransTable
	counters Counters
	tm       timeManager

	stop    atomic.Bool
	running atomic.Bool

	mu         sync.Mutex
	done       chan struct{}
	ponderHold bool // result must be held until ponderhit or stop
	haveResult bool
	delivered  bool
	lastResult SearchResult

	// Search state, owned by the worker while it runs.
	mode    SearchMode
	pos     *board.Position
	myColor board.Color
	perft   bool

	// Per-ply scratch, preallocated once and reused for every search.
	pickers     [MaxSearchDepth]movePicker
	pv          [MaxSearchDepth + 1][]board.Move
	killers     [MaxSearchDepth][]board.Move
	mateThreat  [MaxSearchDepth]bool
	singleReply [MaxSearchDepth]bool

	rootMoves            []board.Move
	rootValues           []int
	currentBestRootMove  board.Move
	currentBestRootValue int
	hadBookMove          bool
	uciTicker            time.Time
}

// NewSearch builds a search orchestrator for the given configuration.
func NewSearch(config Config) (*Search, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	tt, err := NewTransTable(config.HashSizeMB)
	if err != nil {
		return nil, err
	}
	s := &Search{
		config: config,
		eval:   NewClassicEval(),
		tt:     tt,
	}
	for i := range s.pv {
		s.pv[i] = make([]board.Move, 0, MaxSearchDepth+1)
	}
	for i := range s.killers {
		s.killers[i] = make([]board.Move, 0, 4)
	}
	s.rootMoves = make([]board.Move, 0, maxMoves)
	s.rootValues = make([]int, 0, maxMoves)
	return s, nil
}

// SetSink installs the protocol sink. Without one, results are logged.
func (s *Search) SetSink(sink Sink) {
	s.sink = sink
}

// SetEvaluator replaces the leaf evaluator.
func (s *Search) SetEvaluator(eval Evaluator) {
	s.eval = eval
}

// SetBook installs the opening book.
func (s *Search) SetBook(b *book.Book) {
	s.book = b
}

// Config returns the active configuration.
func (s *Search) Config() Config {
	return s.config
}

// SetOption updates one configuration option by name; rejected while a
// search is running.
func (s *Search) SetOption(name, value string) error {
	if s.IsSearching() {
		return ErrSearchRunning
	}
	if err := s.config.Set(name, value); err != nil {
		return err
	}
	if name == "Hash" || name == "HashSizeMB" {
		return s.SetHashSize(s.config.HashSizeMB)
	}
	return nil
}

// SetHashSize rebuilds the transposition table at the given size in MB.
// All cached entries are dropped.
func (s *Search) SetHashSize(mb int) error {
	if s.IsSearching() {
		return ErrSearchRunning
	}
	tt, err := NewTransTable(mb)
	if err != nil {
		return err
	}
	s.tt = tt
	s.config.HashSizeMB = mb
	return nil
}

// NewGame clears state carried between searches of one game.
func (s *Search) NewGame() {
	if s.IsSearching() {
		return
	}
	s.tt.Clear()
	s.hadBookMove = false
}

// IsSearching reports whether the worker is active.
func (s *Search) IsSearching() bool {
	return s.running.Load()
}

// Counters exposes the statistics of the last (or running) search.
func (s *Search) Counters() *Counters {
	return &s.counters
}

// TranspositionTable exposes the table for inspection.
func (s *Search) TranspositionTable() *TransTable {
	return s.tt
}

// PrincipalVariation returns a copy of the root principal variation of
// the last finished search.
func (s *Search) PrincipalVariation() []board.Move {
	line := make([]board.Move, len(s.pv[0]))
	copy(line, s.pv[0])
	return line
}

// LastResult returns the result of the last finished search.
func (s *Search) LastResult() SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// StartSearch launches the worker for the given position and mode. It
// returns once the worker has installed its scratch state, so an
// immediately following StopSearch always finds it. Starting while a
// search runs is an error; a nil position is rejected at the boundary.
func (s *Search) StartSearch(pos *board.Position, mode SearchMode) error {
	if pos == nil {
		log.Printf("engine: start rejected, nil position")
		return ErrInvalidPosition
	}

	s.mu.Lock()
	if s.done != nil {
		select {
		case <-s.done:
			s.done = nil // previous search finished on its own
		default:
			s.mu.Unlock()
			log.Printf("engine: start rejected, search already running")
			return ErrSearchRunning
		}
	}
	done := make(chan struct{})
	s.done = done
	s.ponderHold = mode.Ponder
	s.haveResult = false
	s.delivered = false
	s.mu.Unlock()

	s.mode = mode
	s.pos = pos.Copy()
	s.myColor = s.pos.SideToMove()
	s.stop.Store(false)
	s.running.Store(true)

	initDone := make(chan struct{})
	go s.run(initDone, done)
	<-initDone
	return nil
}

// run is the worker body: initialize scratch state, release the caller,
// search, and deliver the result unless a ponder search must hold it.
func (s *Search) run(initDone, done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)

	s.counters.Reset()
	for i := 0; i < MaxSearchDepth; i++ {
		s.pv[i] = s.pv[i][:0]
		s.killers[i] = s.killers[i][:0]
		s.mateThreat[i] = false
		s.singleReply[i] = false
	}
	s.pv[MaxSearchDepth] = s.pv[MaxSearchDepth][:0]
	s.perft = s.config.Perft || s.mode.Perft

	s.tt.AgeAll()

	close(initDone)

	result, fromBook := s.probeBook(s.pos)
	if !fromBook {
		result = s.iterativeDeepening(s.pos)
	}

	s.mu.Lock()
	s.lastResult = result
	s.haveResult = true
	hold := s.ponderHold
	if !hold {
		s.delivered = true
	}
	s.mu.Unlock()

	if hold {
		// A ponder search ended before a ponderhit or stop arrived; the
		// control thread delivers the result later.
		log.Printf("engine: ponder search finished, holding result")
		return
	}
	s.deliver(result)
}

// deliverHeld hands out a finished-but-undelivered result, exactly once.
func (s *Search) deliverHeld() {
	s.mu.Lock()
	ok := s.haveResult && !s.delivered
	var result SearchResult
	if ok {
		s.delivered = true
		result = s.lastResult
	}
	s.mu.Unlock()
	if ok {
		s.deliver(result)
	}
}

// StopSearch sets the stop flag and waits for the worker to exit. With
// no search running it logs and returns. Stopping a running ponder
// search is a ponder miss; the result is still delivered, as the
// protocol requires a best move after every search.
func (s *Search) StopSearch() {
	s.mu.Lock()
	done := s.done
	s.ponderHold = false
	s.mu.Unlock()
	if done == nil {
		log.Printf("engine: stop requested but no search is running")
		return
	}

	s.stop.Store(true)
	<-done

	s.mu.Lock()
	s.done = nil
	s.mu.Unlock()

	s.deliverHeld()
}

// PonderHit switches a running ponder search into a time-controlled one,
// re-arming the clock. If the ponder search already finished, the held
// result is delivered instead.
func (s *Search) PonderHit() {
	s.mu.Lock()
	if !s.ponderHold {
		s.mu.Unlock()
		log.Printf("engine: ponderhit without a ponder search")
		return
	}
	s.ponderHold = false
	finished := s.haveResult
	s.mu.Unlock()

	if finished {
		s.deliverHeld()
		return
	}

	// Still pondering: start the clock now that the move was played.
	timed := s.mode
	timed.ponderHit()
	s.tm.arm(&timed, s.myColor)
}

// WaitWhileSearching blocks until the current search, if any, finishes.
func (s *Search) WaitWhileSearching() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// deliver hands the result to the sink, or logs it without one.
func (s *Search) deliver(result SearchResult) {
	if s.sink == nil {
		log.Printf("engine: %s", result.String())
		return
	}
	s.sink.SendBestMove(result.BestMove, result.PonderMove)
}

// sendInfo forwards an info line to the sink, or logs it.
func (s *Search) sendInfo(line string) {
	if s.sink == nil {
		log.Printf("engine: info %s", line)
		return
	}
	s.sink.SendInfo(line)
}
