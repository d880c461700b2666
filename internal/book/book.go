// Package book reads Polyglot-format opening books and probes them by
// position.
package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/petrelchess/petrel/internal/board"
)

// Entry is one weighted book move for a position.
type Entry struct {
	From   board.Square
	To     board.Square
	Promo  board.PieceType // NoPieceType when not a promotion
	Weight uint16
}

// Book is an in-memory opening book keyed by Polyglot position hash.
type Book struct {
	entries map[uint64][]Entry
}

// New returns an empty book.
func New() *Book {
	return &Book{entries: make(map[uint64][]Entry)}
}

// Load reads a Polyglot book file.
func Load(filename string) (*Book, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader reads Polyglot records from r: 8 bytes key, 2 bytes move,
// 2 bytes weight, 4 bytes learn data (ignored), all big-endian.
func LoadReader(r io.Reader) (*Book, error) {
	b := New()
	var rec [16]byte
	for {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("book: truncated record: %w", err)
		}
		key := binary.BigEndian.Uint64(rec[0:8])
		move := binary.BigEndian.Uint16(rec[8:10])
		weight := binary.BigEndian.Uint16(rec[10:12])
		b.entries[key] = append(b.entries[key], decodeMove(move, weight))
	}
	return b, nil
}

// decodeMove unpacks the Polyglot move encoding: to in bits 0-5, from in
// bits 6-11, promotion piece in bits 12-14.
func decodeMove(data, weight uint16) Entry {
	to := board.NewSquare(int(data&7), int((data>>3)&7))
	from := board.NewSquare(int((data>>6)&7), int((data>>9)&7))

	// Polyglot encodes castling as king-takes-rook.
	switch {
	case from == board.E1 && to == board.H1:
		to = board.G1
	case from == board.E1 && to == board.A1:
		to = board.C1
	case from == board.E8 && to == board.H8:
		to = board.G8
	case from == board.E8 && to == board.A8:
		to = board.C8
	}

	promo := board.NoPieceType
	if p := (data >> 12) & 7; p > 0 && p < 5 {
		promo = []board.PieceType{board.Knight, board.Bishop, board.Rook, board.Queen}[p-1]
	}
	return Entry{From: from, To: to, Promo: promo, Weight: weight}
}

// Size returns the number of positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Probe returns a legal book move for pos, weighted-randomly among the
// stored alternatives, or false when the position is out of book.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil {
		return board.NoMove, false
	}
	entries, ok := b.entries[pos.PolyglotHash()]
	if !ok || len(entries) == 0 {
		return board.NoMove, false
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })

	total := uint32(0)
	for _, e := range sorted {
		total += uint32(e.Weight)
	}
	pick := uint32(0)
	if total > 0 {
		pick = rand.Uint32() % total
	}

	cumulative := uint32(0)
	for _, e := range sorted {
		cumulative += uint32(e.Weight)
		if pick < cumulative || total == 0 {
			if m := matchLegal(pos, e); m != board.NoMove {
				return m, true
			}
			// A corrupt or mismatched entry: fall through to the next.
		}
	}
	return board.NoMove, false
}

// matchLegal resolves a book entry against the legal moves of pos, which
// fills in the move type and captured piece of the full encoding.
func matchLegal(pos *board.Position, e Entry) board.Move {
	for _, m := range pos.LegalMoves() {
		if m.From() != e.From || m.To() != e.To {
			continue
		}
		if e.Promo == board.NoPieceType {
			if m.Type() != board.Promotion {
				return m
			}
			continue
		}
		if m.Type() == board.Promotion && m.Promotion() == e.Promo {
			return m
		}
	}
	return board.NoMove
}
