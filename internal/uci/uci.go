// Package uci implements the Universal Chess Interface protocol on top
// of the search orchestrator, and acts as its output sink.
package uci

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/petrelchess/petrel/internal/board"
	"github.com/petrelchess/petrel/internal/book"
	"github.com/petrelchess/petrel/internal/engine"
	"github.com/petrelchess/petrel/internal/storage"
)

// Handler parses client commands and forwards search output. It is the
// engine's Sink: info lines and best moves printed here may originate
// from the search worker goroutine, so writes are serialized.
type Handler struct {
	search *engine.Search
	store  *storage.Store // optional persistence, may be nil
	pos    *board.Position

	outMu sync.Mutex
	out   io.Writer
}

// New builds a handler around the given search orchestrator.
func New(search *engine.Search, store *storage.Store, out io.Writer) *Handler {
	h := &Handler{
		search: search,
		store:  store,
		pos:    board.StartingPosition(),
		out:    out,
	}
	search.SetSink(h)
	return h
}

func (h *Handler) printf(format string, args ...any) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintf(h.out, format+"\n", args...)
}

// SendInfo implements engine.Sink.
func (h *Handler) SendInfo(line string) {
	h.printf("info %s", line)
}

// SendBestMove implements engine.Sink.
func (h *Handler) SendBestMove(best, ponder board.Move) {
	if ponder != board.NoMove {
		h.printf("bestmove %s ponder %s", best, ponder)
	} else {
		h.printf("bestmove %s", best)
	}
	h.recordSearch()
}

// recordSearch folds the finished search into the persistent statistics.
func (h *Handler) recordSearch() {
	if h.store == nil {
		return
	}
	c := h.search.Counters()
	result := h.search.LastResult()
	if err := h.store.RecordSearch(c.NodesVisited, result.Depth, result.Time); err != nil {
		log.Printf("uci: recording search stats: %v", err)
	}
}

// Run reads commands until EOF or "quit".
func (h *Handler) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "uci":
			h.handleUCI()
		case "isready":
			h.printf("readyok")
		case "setoption":
			h.handleSetOption(args)
		case "ucinewgame":
			h.search.NewGame()
			h.pos = board.StartingPosition()
		case "position":
			h.handlePosition(args)
		case "go":
			h.handleGo(args)
		case "stop":
			h.search.StopSearch()
		case "ponderhit":
			h.search.PonderHit()
		case "quit":
			h.search.StopSearch()
			return
		case "d":
			h.printf("%s", h.pos.String())
		case "perft":
			h.handlePerft(args)
		default:
			log.Printf("uci: unknown command %q", cmd)
		}
	}
}

func (h *Handler) handleUCI() {
	h.printf("id name Petrel")
	h.printf("id author The Petrel authors")
	h.printf("option name Hash type spin default %d min 1 max 4096", h.search.Config().HashSizeMB)
	h.printf("option name OwnBook type check default %t", h.search.Config().UseBook)
	h.printf("option name BookFile type string default <empty>")
	h.printf("option name Contempt type spin default %d min 0 max 200", h.search.Config().ContemptFactor)
	h.printf("option name Ponder type check default true")
	h.printf("uciok")
}

// handleSetOption parses "setoption name <name> value <value>" and
// applies it, translating the protocol names onto configuration names.
func (h *Handler) handleSetOption(args []string) {
	var name, value string
	target := (*string)(nil)
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				if *target != "" {
					*target += " "
				}
				*target += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		name = "Hash"
	case "ownbook":
		name = "UseBook"
	case "bookfile":
		name = "BookPath"
	case "contempt":
		name = "ContemptFactor"
	case "ponder":
		return // pondering is driven by "go ponder", nothing to configure
	}

	if err := h.search.SetOption(name, value); err != nil {
		if errors.Is(err, engine.ErrBadOption) {
			log.Printf("uci: %v", err)
			return
		}
		log.Printf("uci: setoption %s: %v", name, err)
		return
	}

	if name == "BookPath" && value != "" {
		b, err := book.Load(value)
		if err != nil {
			log.Printf("uci: loading book %q: %v", value, err)
			return
		}
		h.search.SetBook(b)
	}
	h.saveOptions()
}

func (h *Handler) saveOptions() {
	if h.store == nil {
		return
	}
	cfg := h.search.Config()
	err := h.store.SaveOptions(&storage.Options{
		HashSizeMB:     cfg.HashSizeMB,
		UseBook:        cfg.UseBook,
		BookPath:       cfg.BookPath,
		ContemptFactor: cfg.ContemptFactor,
	})
	if err != nil {
		log.Printf("uci: saving options: %v", err)
	}
}

// handlePosition parses "position [startpos | fen <fen>] [moves ...]".
func (h *Handler) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.StartingPosition()
	case "fen":
		p, err := board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			log.Printf("uci: %v", err)
			return
		}
		pos = p
	default:
		log.Printf("uci: bad position command %q", strings.Join(args, " "))
		return
	}

	for _, moveStr := range args[min(movesAt+1, len(args)):] {
		m := matchMove(pos, moveStr)
		if m == board.NoMove {
			log.Printf("uci: illegal move %q in position command", moveStr)
			return
		}
		pos.MakeMove(m)
	}
	h.pos = pos
}

// matchMove resolves a long-algebraic move string against the legal
// moves of pos.
func matchMove(pos *board.Position, s string) board.Move {
	for _, m := range pos.LegalMoves() {
		if m.String() == s {
			return m
		}
	}
	return board.NoMove
}

// handleGo parses the go command into a SearchMode and starts the search.
func (h *Handler) handleGo(args []string) {
	var mode engine.SearchMode

	intArg := func(i int) int {
		if i >= len(args) {
			return 0
		}
		n, _ := strconv.Atoi(args[i])
		return n
	}
	msArg := func(i int) time.Duration {
		return time.Duration(intArg(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			mode.Depth = intArg(i + 1)
			i++
		case "nodes":
			mode.Nodes = int64(intArg(i + 1))
			i++
		case "mate":
			mode.Mate = intArg(i + 1)
			i++
		case "movetime":
			mode.MoveTime = msArg(i + 1)
			i++
		case "wtime":
			mode.WhiteTime = msArg(i + 1)
			i++
		case "btime":
			mode.BlackTime = msArg(i + 1)
			i++
		case "winc":
			mode.WhiteInc = msArg(i + 1)
			i++
		case "binc":
			mode.BlackInc = msArg(i + 1)
			i++
		case "movestogo":
			mode.MovesToGo = intArg(i + 1)
			i++
		case "infinite":
			mode.Infinite = true
		case "ponder":
			mode.Ponder = true
		case "perft":
			mode.Perft = true
			mode.Depth = intArg(i + 1)
			i++
		case "searchmoves":
			for i+1 < len(args) && looksLikeMove(args[i+1]) {
				mode.Moves = append(mode.Moves, args[i+1])
				i++
			}
		}
	}

	if err := h.search.StartSearch(h.pos, mode); err != nil {
		log.Printf("uci: go: %v", err)
	}
}

// looksLikeMove loosely matches long algebraic notation.
func looksLikeMove(s string) bool {
	if len(s) != 4 && len(s) != 5 {
		return false
	}
	return s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8' &&
		s[2] >= 'a' && s[2] <= 'h' && s[3] >= '1' && s[3] <= '8'
}

// handlePerft runs a perft count to the given depth and prints the
// classified leaf counters.
func (h *Handler) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			depth = n
		}
	}

	start := time.Now()
	mode := engine.SearchMode{Perft: true, Depth: depth, StartDepth: depth}
	if err := h.search.StartSearch(h.pos, mode); err != nil {
		log.Printf("uci: perft: %v", err)
		return
	}
	h.search.WaitWhileSearching()
	elapsed := time.Since(start)

	c := h.search.Counters()
	h.printf("perft %d: nodes %d captures %d ep %d checks %d mates %d time %v",
		depth, c.LeafPositionsEvaluated, c.CaptureCount, c.EnPassantCount,
		c.CheckCount, c.CheckmateCount, elapsed.Round(time.Millisecond))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
