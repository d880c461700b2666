package engine

import (
	"sync"
	"time"

	"github.com/petrelchess/petrel/internal/board"
)

// timeManager derives soft and hard wall-clock deadlines from a search
// mode and supports multiplicative extensions. The caller thread may
// re-arm it on a ponder hit while the worker polls it, so all state is
// behind a mutex.
type timeManager struct {
	mu sync.Mutex

	start     time.Time
	timed     bool
	perMove   bool
	hardLimit time.Duration
	softLimit time.Duration
	extra     time.Duration
	softLatch bool
	hardLatch bool
}

// safetyMargin keeps a reserve on the clock so low-time games do not
// flag; movesAssumed is the horizon used when moves-to-go is unknown.
const (
	safetyMargin = time.Second
	movesAssumed = 40
)

// arm starts the clock and derives the limits from the mode. Non-timed
// modes leave the manager disarmed: both deadline checks stay false.
func (tm *timeManager) arm(mode *SearchMode, us board.Color) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.start = time.Now()
	tm.extra = 0
	tm.softLatch = false
	tm.hardLatch = false
	tm.timed = mode.IsTimeControl()
	tm.perMove = false
	if !tm.timed {
		return
	}

	if mode.MoveTime > 0 {
		tm.perMove = true
		tm.hardLimit = mode.MoveTime
		tm.softLimit = mode.MoveTime
		return
	}

	timeLeft := mode.RemainingTime(us) - safetyMargin
	movesLeft := mode.MovesToGo
	if movesLeft <= 0 {
		movesLeft = movesAssumed
	}
	timeLeft += movesAssumed * mode.Increment(us)

	tm.hardLimit = timeLeft / time.Duration(movesLeft)
	tm.softLimit = tm.hardLimit * 8 / 10

	// Emergency shrink when almost no time is left.
	if tm.hardLimit < 100*time.Millisecond {
		tm.addExtraLocked(0.9)
	}
}

// addExtra accumulates hard*(factor-1) of extra time. A fixed per-move
// budget is never extended.
func (tm *timeManager) addExtra(factor float64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.addExtraLocked(factor)
}

func (tm *timeManager) addExtraLocked(factor float64) {
	if !tm.timed || tm.perMove {
		return
	}
	tm.extra += time.Duration(float64(tm.hardLimit) * (factor - 1))
}

// elapsed returns the time since the clock was armed.
func (tm *timeManager) elapsed() time.Duration {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return time.Since(tm.start)
}

// restart resets the clock base and the deadline latches, keeping the
// limits. Ponder hit re-arms through arm instead.
func (tm *timeManager) restart() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.start = time.Now()
	tm.softLatch = false
	tm.hardLatch = false
}

// softReached reports whether the soft deadline has passed: the driver
// asks it between iterations to decide whether to start another depth.
// Once true it stays true for the rest of the search.
func (tm *timeManager) softReached() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if !tm.timed {
		return false
	}
	if tm.softLatch {
		return true
	}
	limit := tm.softLimit + time.Duration(float64(tm.extra)*0.8)
	if time.Since(tm.start) >= limit {
		tm.softLatch = true
	}
	return tm.softLatch
}

// hardReached reports whether the hard deadline has passed: the search
// polls it on node entry to stop mid-iteration. Monotonic like
// softReached.
func (tm *timeManager) hardReached() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if !tm.timed {
		return false
	}
	if tm.hardLatch {
		return true
	}
	if time.Since(tm.start) >= tm.hardLimit+tm.extra {
		tm.hardLatch = true
	}
	return tm.hardLatch
}
