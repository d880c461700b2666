package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string into a Position.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("invalid FEN %q: need at least 4 fields", fen)
	}

	p := &Position{
		enPassant:      NoSquare,
		fullMoveNumber: 1,
		history:        make([]stateInfo, 0, historyCapacity),
	}
	for sq := A1; sq <= H8; sq++ {
		p.squares[sq] = NoPiece
	}
	p.kingSquare[White] = NoSquare
	p.kingSquare[Black] = NoSquare

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid FEN %q: need 8 ranks", fen)
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(c)
			if piece == NoPiece || file > 7 {
				return nil, fmt.Errorf("invalid FEN %q: bad rank %q", fen, rankStr)
			}
			p.putPiece(piece, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return nil, fmt.Errorf("invalid FEN %q: bad rank %q", fen, rankStr)
		}
	}

	switch fields[1] {
	case "w":
		p.sideToMove = White
	case "b":
		p.sideToMove = Black
	default:
		return nil, fmt.Errorf("invalid FEN %q: bad side to move", fen)
	}

	if fields[2] != "-" {
		for _, c := range fields[2] {
			switch c {
			case 'K':
				p.castling |= WhiteKingSide
			case 'Q':
				p.castling |= WhiteQueenSide
			case 'k':
				p.castling |= BlackKingSide
			case 'q':
				p.castling |= BlackQueenSide
			default:
				return nil, fmt.Errorf("invalid FEN %q: bad castling field", fen)
			}
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("invalid FEN %q: %v", fen, err)
		}
		p.enPassant = sq
	}

	if len(fields) > 4 {
		hmc, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("invalid FEN %q: bad half-move clock", fen)
		}
		p.halfMoveClock = hmc
	}
	if len(fields) > 5 {
		fmn, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, fmt.Errorf("invalid FEN %q: bad move number", fen)
		}
		p.fullMoveNumber = fmn
	}

	if p.pieces[White][King].PopCount() != 1 || p.pieces[Black][King].PopCount() != 1 {
		return nil, fmt.Errorf("invalid FEN %q: each side needs exactly one king", fen)
	}

	p.key = p.computeKey()
	p.updateCheckers()
	return p, nil
}

// ToFEN formats the position as a FEN string.
func (p *Position) ToFEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.squares[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.sideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(p.castling.String())
	sb.WriteByte(' ')
	sb.WriteString(p.enPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.halfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.fullMoveNumber))
	return sb.String()
}
