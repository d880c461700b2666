package engine

import (
	"github.com/petrelchess/petrel/internal/board"
)

// Bound classifies a transposition table score.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundExact       // fully searched node
	BoundUpper       // search failed low, true value <= stored value
	BoundLower       // search failed high, true value >= stored value
)

func (b Bound) String() string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	}
	return "none"
}

// TTEntry is one transposition table record. Mate scores are stored as
// distance from the storing node; callers re-offset by their own ply.
type TTEntry struct {
	Key        uint64
	Move       board.Move
	Value      int16
	Depth      int8
	Bound      Bound
	Age        uint8
	MateThreat bool
}

// entryStride is the per-slot memory accounting used to size the table:
// the packed entry plus slot overhead.
const entryStride = 32

// ageCap saturates the age counter.
const ageCap = 127

// TransTable is a fixed-capacity, direct-mapped cache of node results,
// addressed by key modulo capacity. It is confined to the search worker;
// no internal locking.
type TransTable struct {
	entries []TTEntry
	used    int

	puts       int64
	collisions int64
	updates    int64
	probes     int64
	hits       int64
	misses     int64
}

// NewTransTable allocates a table of the given size. Sizes below 1 MB
// are rejected with ErrTableSize.
func NewTransTable(sizeMB int) (*TransTable, error) {
	if sizeMB < 1 {
		return nil, ErrTableSize
	}
	capacity := sizeMB * 1024 * 1024 / entryStride
	return &TransTable{entries: make([]TTEntry, capacity)}, nil
}

func (tt *TransTable) slot(key uint64) *TTEntry {
	return &tt.entries[key%uint64(len(tt.entries))]
}

// Probe returns the entry stored for key, freshening its age on a hit.
func (tt *TransTable) Probe(key uint64) (TTEntry, bool) {
	tt.probes++
	e := tt.slot(key)
	if e.Key == key {
		tt.hits++
		if e.Age > 0 {
			e.Age--
		}
		return *e, true
	}
	tt.misses++
	return TTEntry{}, false
}

// Store writes a node result, applying the replacement policy:
//
//   - empty slot: fill;
//   - different position: overwrite only when at least as deep and the
//     resident entry has aged unreferenced;
//   - same position: deeper results replace shallower ones, equal-depth
//     results never downgrade an exact score, and a real best move is
//     never overwritten by NoMove.
func (tt *TransTable) Store(key uint64, value int, bound Bound, depth int, bestMove board.Move, mateThreat bool) {
	e := tt.slot(key)
	tt.puts++

	switch {
	case e.Key == 0:
		tt.used++
		*e = TTEntry{
			Key:        key,
			Move:       bestMove,
			Value:      int16(value),
			Depth:      int8(depth),
			Bound:      bound,
			Age:        1,
			MateThreat: mateThreat,
		}

	case e.Key != key:
		if depth >= int(e.Depth) && e.Age > 0 {
			tt.collisions++
			*e = TTEntry{
				Key:        key,
				Move:       bestMove,
				Value:      int16(value),
				Depth:      int8(depth),
				Bound:      bound,
				Age:        1,
				MateThreat: mateThreat,
			}
		}

	default: // same position
		switch {
		case depth > int(e.Depth):
			tt.updates++
			e.Age = 1
			e.MateThreat = mateThreat
			e.Value = int16(value)
			e.Bound = bound
			e.Depth = int8(depth)
			if bestMove != board.NoMove {
				e.Move = bestMove
			}
		case depth == int(e.Depth):
			tt.updates++
			e.Age = 1
			e.MateThreat = mateThreat
			if e.Bound != BoundExact {
				e.Value = int16(value)
				e.Bound = bound
				e.Depth = int8(depth)
			}
			if bestMove != board.NoMove {
				e.Move = bestMove
			}
		default:
			if e.Move == board.NoMove {
				e.Move = bestMove
			}
		}
	}
}

// AgeAll marks every occupied slot one search older, saturating at the
// cap. Called once at the start of each search.
func (tt *TransTable) AgeAll() {
	for i := range tt.entries {
		if tt.entries[i].Key != 0 && tt.entries[i].Age < ageCap {
			tt.entries[i].Age++
		}
	}
}

// Clear zeroes every slot and all statistics.
func (tt *TransTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.used = 0
	tt.puts = 0
	tt.collisions = 0
	tt.updates = 0
	tt.probes = 0
	tt.hits = 0
	tt.misses = 0
}

// Capacity returns the number of slots.
func (tt *TransTable) Capacity() int {
	return len(tt.entries)
}

// Used returns the number of occupied slots.
func (tt *TransTable) Used() int {
	return tt.used
}

// Hashfull returns the occupied fraction in permille, as reported in UCI
// info lines.
func (tt *TransTable) Hashfull() int {
	if len(tt.entries) == 0 {
		return 0
	}
	return tt.used * 1000 / len(tt.entries)
}

// Hits returns the number of successful probes.
func (tt *TransTable) Hits() int64 { return tt.hits }

// Misses returns the number of failed probes.
func (tt *TransTable) Misses() int64 { return tt.misses }

// Collisions returns the number of different-position overwrites.
func (tt *TransTable) Collisions() int64 { return tt.collisions }
