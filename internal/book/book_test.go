package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/petrelchess/petrel/internal/board"
)

// record builds one raw Polyglot book record.
func record(key uint64, from, to board.Square, weight uint16) []byte {
	var rec [16]byte
	binary.BigEndian.PutUint64(rec[0:8], key)
	move := uint16(to.File()) | uint16(to.Rank())<<3 |
		uint16(from.File())<<6 | uint16(from.Rank())<<9
	binary.BigEndian.PutUint16(rec[8:10], move)
	binary.BigEndian.PutUint16(rec[10:12], weight)
	return rec[:]
}

func TestLoadAndProbe(t *testing.T) {
	pos := board.StartingPosition()
	key := pos.PolyglotHash()

	var buf bytes.Buffer
	buf.Write(record(key, board.E2, board.E4, 100))
	buf.Write(record(key, board.D2, board.D4, 50))

	b, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if b.Size() != 1 {
		t.Errorf("Size = %d, want 1", b.Size())
	}

	move, ok := b.Probe(pos)
	if !ok {
		t.Fatal("probe missed a stored position")
	}
	if s := move.String(); s != "e2e4" && s != "d2d4" {
		t.Errorf("probe returned %s, want e2e4 or d2d4", s)
	}
	// The resolved move carries the full encoding.
	if move.Piece() != board.WhitePawn {
		t.Errorf("resolved move has piece %v, want white pawn", move.Piece())
	}
}

func TestProbeOutOfBook(t *testing.T) {
	b := New()
	if _, ok := b.Probe(board.StartingPosition()); ok {
		t.Error("empty book returned a move")
	}

	var nilBook *Book
	if _, ok := nilBook.Probe(board.StartingPosition()); ok {
		t.Error("nil book returned a move")
	}
}

func TestTruncatedRecord(t *testing.T) {
	if _, err := LoadReader(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Error("truncated book should fail to load")
	}
}

func TestCastlingDecoding(t *testing.T) {
	// Polyglot encodes white kingside castling as e1-h1.
	pos, err := board.ParseFEN("5k2/8/8/8/8/8/8/4K2R w K - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	var buf bytes.Buffer
	buf.Write(record(pos.PolyglotHash(), board.E1, board.H1, 10))
	b, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	move, ok := b.Probe(pos)
	if !ok {
		t.Fatal("probe missed")
	}
	if move.Type() != board.Castling || move.String() != "e1g1" {
		t.Errorf("castling decoded as %s (%v)", move, move.Type())
	}
}

func TestIllegalEntrySkipped(t *testing.T) {
	pos := board.StartingPosition()
	var buf bytes.Buffer
	buf.Write(record(pos.PolyglotHash(), board.E2, board.E5, 10)) // not a legal move
	b, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if m, ok := b.Probe(pos); ok {
		t.Errorf("illegal book entry resolved to %s", m)
	}
}
