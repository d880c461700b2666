package engine

import (
	"errors"
	"fmt"
	"strconv"
)

// Configuration errors surfaced at option-setting time; they never enter
// the search itself.
var (
	ErrBadOption       = errors.New("unknown or invalid option")
	ErrTableSize       = errors.New("hash table must be at least 1 MB")
	ErrSearchRunning   = errors.New("search already running")
	ErrInvalidPosition = errors.New("invalid position")
)

// Config gates every pruning, reduction and ordering feature of the
// search individually. The default enables everything except the
// experimental MTD(f) window strategy and perft counting.
type Config struct {
	UseAlphaBetaPruning bool
	UsePVS              bool
	UsePVSOrdering      bool

	UseKillerMoves bool
	KillerMoves    int

	UseAspirationWindow  bool
	AspirationStartDepth int

	UseMTDf        bool
	MTDfStartDepth int

	UseTranspositionTable bool
	UseTTRoot             bool
	HashSizeMB            int

	UseMDP bool
	UseMPP bool

	UseRFP    bool
	RFPMargin int

	UseNMP               bool
	NMPDepth             int
	UseVerifyNMP         bool
	NMPVerificationDepth int

	UseRazorPruning bool
	RazorDepth      int
	RazorMargin     int

	UseIID       bool
	IIDReduction int

	UseExtensions bool

	UseLimitedRazoring         bool
	UseExtendedFutilityPruning bool
	UseFutilityPruning         bool

	UseLMR       bool
	LMRMinDepth  int
	LMRMinMoves  int
	LMRReduction int

	UseQuiescence       bool
	UseQFutilityPruning bool

	UseBook  bool
	BookPath string

	Perft bool

	ContemptFactor int
}

// DefaultConfig returns the default feature set.
func DefaultConfig() Config {
	return Config{
		UseAlphaBetaPruning: true,
		UsePVS:              true,
		UsePVSOrdering:      true,

		UseKillerMoves: true,
		KillerMoves:    2,

		UseAspirationWindow:  true,
		AspirationStartDepth: 4,

		UseMTDf:        false,
		MTDfStartDepth: 4,

		UseTranspositionTable: true,
		UseTTRoot:             true,
		HashSizeMB:            64,

		UseMDP: true,
		UseMPP: true,

		UseRFP:    true,
		RFPMargin: 300,

		UseNMP:               true,
		NMPDepth:             3,
		UseVerifyNMP:         true,
		NMPVerificationDepth: 3,

		UseRazorPruning: true,
		RazorDepth:      3,
		RazorMargin:     600,

		UseIID:       true,
		IIDReduction: 2,

		UseExtensions: true,

		UseLimitedRazoring:         true,
		UseExtendedFutilityPruning: true,
		UseFutilityPruning:         true,

		UseLMR:       true,
		LMRMinDepth:  3,
		LMRMinMoves:  3,
		LMRReduction: 1,

		UseQuiescence:       true,
		UseQFutilityPruning: true,

		UseBook: true,

		ContemptFactor: 20,
	}
}

// AllPruningOff returns a configuration with every pruning, reduction and
// window trick disabled: a plain full-width alpha-beta-less tree walk,
// used by perft and by search property tests.
func AllPruningOff() Config {
	c := DefaultConfig()
	c.UseAlphaBetaPruning = false
	c.UsePVS = false
	c.UseAspirationWindow = false
	c.UseMTDf = false
	c.UseTranspositionTable = false
	c.UseTTRoot = false
	c.UseMDP = false
	c.UseMPP = false
	c.UseRFP = false
	c.UseNMP = false
	c.UseRazorPruning = false
	c.UseIID = false
	c.UseExtensions = false
	c.UseLimitedRazoring = false
	c.UseExtendedFutilityPruning = false
	c.UseFutilityPruning = false
	c.UseLMR = false
	c.UseQuiescence = false
	c.UseQFutilityPruning = false
	c.UseBook = false
	return c
}

// Validate rejects contradictory settings.
func (c *Config) Validate() error {
	if c.UseMTDf && c.UsePVS {
		return fmt.Errorf("%w: MTDf and PVS cannot both be enabled", ErrBadOption)
	}
	if c.HashSizeMB < 1 {
		return ErrTableSize
	}
	return nil
}

// Set updates a single option by name. Unknown names and malformed
// values return an error wrapping ErrBadOption.
func (c *Config) Set(name, value string) error {
	boolVal := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%w: %s=%q", ErrBadOption, name, value)
		}
		return b, nil
	}
	intVal := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrBadOption, name, value)
		}
		return n, nil
	}

	var err error
	switch name {
	case "UseAlphaBetaPruning":
		c.UseAlphaBetaPruning, err = boolVal()
	case "UsePVS":
		c.UsePVS, err = boolVal()
	case "UsePVSOrdering":
		c.UsePVSOrdering, err = boolVal()
	case "UseKillerMoves":
		c.UseKillerMoves, err = boolVal()
	case "KillerMoves":
		c.KillerMoves, err = intVal()
	case "UseAspirationWindow":
		c.UseAspirationWindow, err = boolVal()
	case "AspirationStartDepth":
		c.AspirationStartDepth, err = intVal()
	case "UseMTDf":
		c.UseMTDf, err = boolVal()
	case "MTDfStartDepth":
		c.MTDfStartDepth, err = intVal()
	case "UseTranspositionTable":
		c.UseTranspositionTable, err = boolVal()
	case "UseTTRoot":
		c.UseTTRoot, err = boolVal()
	case "Hash", "HashSizeMB":
		var n int
		n, err = intVal()
		if err == nil && n < 1 {
			return ErrTableSize
		}
		c.HashSizeMB = n
	case "UseMDP":
		c.UseMDP, err = boolVal()
	case "UseMPP":
		c.UseMPP, err = boolVal()
	case "UseRFP":
		c.UseRFP, err = boolVal()
	case "RFPMargin":
		c.RFPMargin, err = intVal()
	case "UseNMP":
		c.UseNMP, err = boolVal()
	case "NMPDepth":
		c.NMPDepth, err = intVal()
	case "UseVerifyNMP":
		c.UseVerifyNMP, err = boolVal()
	case "NMPVerificationDepth":
		c.NMPVerificationDepth, err = intVal()
	case "UseRazorPruning":
		c.UseRazorPruning, err = boolVal()
	case "RazorDepth":
		c.RazorDepth, err = intVal()
	case "RazorMargin":
		c.RazorMargin, err = intVal()
	case "UseIID":
		c.UseIID, err = boolVal()
	case "IIDReduction":
		c.IIDReduction, err = intVal()
	case "UseExtensions":
		c.UseExtensions, err = boolVal()
	case "UseLimitedRazoring":
		c.UseLimitedRazoring, err = boolVal()
	case "UseExtendedFutilityPruning":
		c.UseExtendedFutilityPruning, err = boolVal()
	case "UseFutilityPruning":
		c.UseFutilityPruning, err = boolVal()
	case "UseLMR":
		c.UseLMR, err = boolVal()
	case "LMRMinDepth":
		c.LMRMinDepth, err = intVal()
	case "LMRMinMoves":
		c.LMRMinMoves, err = intVal()
	case "LMRReduction":
		c.LMRReduction, err = intVal()
	case "UseQuiescence":
		c.UseQuiescence, err = boolVal()
	case "UseQFutilityPruning":
		c.UseQFutilityPruning, err = boolVal()
	case "UseBook":
		c.UseBook, err = boolVal()
	case "BookPath":
		c.BookPath = value
	case "Perft":
		c.Perft, err = boolVal()
	case "ContemptFactor":
		c.ContemptFactor, err = intVal()
	default:
		return fmt.Errorf("%w: %q", ErrBadOption, name)
	}
	if err != nil {
		return err
	}
	return c.Validate()
}
