package board

// MoveType classifies a move.
type MoveType uint8

const (
	Normal MoveType = iota + 1
	Castling
	EnPassant
	Promotion
)

// Move packs a full move description into 26 bits of a uint32:
//
//	bits  0-5   origin square
//	bits  6-11  target square
//	bits 12-15  moved piece
//	bits 16-19  captured piece (NoPiece when quiet)
//	bits 20-22  move type
//	bits 23-25  promotion piece type (NoPieceType when not a promotion)
//
// The zero value NoMove is not a valid move (its move type is 0).
type Move uint32

// NoMove is the "no move" sentinel.
const NoMove Move = 0

func newMove(from, to Square, piece, captured Piece, mt MoveType, promo PieceType) Move {
	return Move(from) |
		Move(to)<<6 |
		Move(piece)<<12 |
		Move(captured)<<16 |
		Move(mt)<<20 |
		Move(promo)<<23
}

// NewMove builds a normal move. captured is NoPiece for quiet moves.
func NewMove(from, to Square, piece, captured Piece) Move {
	return newMove(from, to, piece, captured, Normal, NoPieceType)
}

// NewCastlingMove builds a castling move described by the king's movement.
func NewCastlingMove(from, to Square, king Piece) Move {
	return newMove(from, to, king, NoPiece, Castling, NoPieceType)
}

// NewEnPassantMove builds an en passant capture.
func NewEnPassantMove(from, to Square, pawn, captured Piece) Move {
	return newMove(from, to, pawn, captured, EnPassant, NoPieceType)
}

// NewPromotionMove builds a promotion, capturing or not.
func NewPromotionMove(from, to Square, pawn, captured Piece, promo PieceType) Move {
	return newMove(from, to, pawn, captured, Promotion, promo)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the target square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Piece returns the moved piece.
func (m Move) Piece() Piece {
	return Piece((m >> 12) & 0xF)
}

// Captured returns the captured piece, NoPiece for quiet moves.
func (m Move) Captured() Piece {
	return Piece((m >> 16) & 0xF)
}

// Type returns the move type.
func (m Move) Type() MoveType {
	return MoveType((m >> 20) & 0x7)
}

// Promotion returns the promotion piece type, NoPieceType otherwise.
func (m Move) Promotion() PieceType {
	return PieceType((m >> 23) & 0x7)
}

// IsCapture reports whether the move captures a piece.
func (m Move) IsCapture() bool {
	return m.Captured() != NoPiece
}

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && m.Type() != Promotion
}

// String returns the move in long algebraic notation ("e2e4", "e7e8q"),
// "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.Type() == Promotion {
		s += string("nbrq"[m.Promotion()-Knight])
	}
	return s
}

// MoveList is a fixed-capacity move buffer reused across nodes to avoid
// allocation on the search hot path.
type MoveList struct {
	moves [maxMoves]Move
	n     int
}

const maxMoves = 256

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.n] = m
	ml.n++
}

// Len returns the number of moves held.
func (ml *MoveList) Len() int {
	return ml.n
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set replaces the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap exchanges two entries.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list without releasing storage.
func (ml *MoveList) Clear() {
	ml.n = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.n; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the held moves as a slice backed by the list's storage.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.n]
}
