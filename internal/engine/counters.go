package engine

import (
	"fmt"
	"time"

	"github.com/petrelchess/petrel/internal/board"
)

// Counters aggregates all per-search statistics. They are reset at every
// search start and only ever touched by the search worker.
type Counters struct {
	// Progress of the current search.
	CurrentIterationDepth int
	CurrentSearchDepth    int
	CurrentExtraDepth     int // selective depth including quiescence
	CurrentRootMove       board.Move
	CurrentRootMoveNumber int
	BestMoveChanges       int
	LastSearchTime        time.Duration

	NodesVisited   int64
	MovesGenerated int64

	// Leaf accounting; in perft mode the extra counters classify leaves.
	LeafPositionsEvaluated    int64
	NonLeafPositionsEvaluated int64
	CaptureCount              int64
	EnPassantCount            int64
	CheckCount                int64
	CheckmateCount            int64

	// Transposition table traffic seen from the search.
	TTHits    int64
	TTMisses  int64
	TTCuts    int64
	TTIgnored int64

	// Per-technique tallies.
	Prunings               int64
	MateDistancePrunings   int64
	MinorPromotionPrunings int64
	RFPPrunings            int64
	NullMovePrunings       int64
	NullMoveVerifications  int64
	RazorReductions        int64
	IIDSearches            int64
	LimitedRazorReductions int64
	ExtFutilityPrunings    int64
	FutilityPrunings       int64
	QFutilityPrunings      int64
	LMRReductions          int64
	PVSResearches          int64
	PVSCutoffs             int64
	PVSRootResearches      int64
	PVSRootCutoffs         int64
	AspirationResearches   int64

	// BetaCutoffs[i] counts cutoffs caused by the i-th tried move; the
	// distribution measures move-ordering quality.
	BetaCutoffs [maxMoves]int64
}

// Reset zeroes all counters for a new search.
func (c *Counters) Reset() {
	*c = Counters{}
}

// String summarizes the most interesting counters for logging.
func (c *Counters) String() string {
	return fmt.Sprintf(
		"nodes=%d leaves=%d depth=%d/%d tt(hit=%d miss=%d cut=%d) "+
			"prunes(mdp=%d mpp=%d rfp=%d nmp=%d razor=%d efp=%d fp=%d qfp=%d) "+
			"lmr=%d iid=%d research(pvs=%d asp=%d) bestMoveChanges=%d",
		c.NodesVisited, c.LeafPositionsEvaluated,
		c.CurrentIterationDepth, c.CurrentExtraDepth,
		c.TTHits, c.TTMisses, c.TTCuts,
		c.MateDistancePrunings, c.MinorPromotionPrunings, c.RFPPrunings,
		c.NullMovePrunings, c.RazorReductions,
		c.ExtFutilityPrunings, c.FutilityPrunings, c.QFutilityPrunings,
		c.LMRReductions, c.IIDSearches, c.PVSResearches, c.AspirationResearches,
		c.BestMoveChanges)
}
