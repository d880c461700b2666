package board

// GenerateMoves appends all pseudo-legal moves for the side to move.
// Moves may leave the own king in check; callers filter with
// LeftKingInCheck after MakeMove, or use LegalMoves.
func (p *Position) GenerateMoves(ml *MoveList) {
	us := p.sideToMove
	occ := p.all
	targets := ^p.occupied[us]

	p.generatePawnMoves(ml, false)
	p.generatePieceMoves(ml, Knight, targets, occ)
	p.generatePieceMoves(ml, Bishop, targets, occ)
	p.generatePieceMoves(ml, Rook, targets, occ)
	p.generatePieceMoves(ml, Queen, targets, occ)
	p.generateKingMoves(ml, targets)
	p.generateCastlingMoves(ml)
}

// GenerateQMoves appends the noisy moves searched by quiescence:
// captures and promotions, or every move when the side to move is in
// check (evasions are filtered for legality by the caller).
func (p *Position) GenerateQMoves(ml *MoveList) {
	if p.InCheck() {
		p.GenerateMoves(ml)
		return
	}
	us := p.sideToMove
	occ := p.all
	enemies := p.occupied[us.Other()]

	p.generatePawnMoves(ml, true)
	p.generatePieceMoves(ml, Knight, enemies, occ)
	p.generatePieceMoves(ml, Bishop, enemies, occ)
	p.generatePieceMoves(ml, Rook, enemies, occ)
	p.generatePieceMoves(ml, Queen, enemies, occ)
	p.generateKingMoves(ml, enemies)
}

func (p *Position) generatePieceMoves(ml *MoveList, pt PieceType, targets, occ Bitboard) {
	us := p.sideToMove
	piece := NewPiece(pt, us)
	pieces := p.pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		var attacks Bitboard
		switch pt {
		case Knight:
			attacks = knightAttacks[from]
		case Bishop:
			attacks = BishopAttacks(from, occ)
		case Rook:
			attacks = RookAttacks(from, occ)
		case Queen:
			attacks = QueenAttacks(from, occ)
		}
		attacks &= targets
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, piece, p.squares[to]))
		}
	}
}

func (p *Position) generateKingMoves(ml *MoveList, targets Bitboard) {
	us := p.sideToMove
	king := NewPiece(King, us)
	from := p.kingSquare[us]
	if from == NoSquare {
		return
	}
	attacks := kingAttacks[from] & targets
	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to, king, p.squares[to]))
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, capturesOnly bool) {
	us := p.sideToMove
	them := us.Other()
	pawn := NewPiece(Pawn, us)
	pawns := p.pieces[us][Pawn]
	empty := ^p.all
	enemies := p.occupied[them]

	var push1, push2, capsWest, capsEast Bitboard
	var promoRank Bitboard
	var forward int
	if us == White {
		push1 = pawns.north() & empty
		push2 = (push1 & Rank3).north() & empty
		capsWest = pawns.northWest() & enemies
		capsEast = pawns.northEast() & enemies
		promoRank = Rank8
		forward = 8
	} else {
		push1 = pawns.south() & empty
		push2 = (push1 & Rank6).south() & empty
		capsWest = pawns.southWest() & enemies
		capsEast = pawns.southEast() & enemies
		promoRank = Rank1
		forward = -8
	}
	// A west capture lands one file lower than a push, an east capture one
	// file higher, for either color.
	westBack := forward - 1
	eastBack := forward + 1

	addPawnMoves := func(tos Bitboard, back int, promo bool) {
		for tos != 0 {
			to := tos.PopLSB()
			from := Square(int(to) - back)
			captured := p.squares[to]
			if promo {
				ml.Add(NewPromotionMove(from, to, pawn, captured, Queen))
				ml.Add(NewPromotionMove(from, to, pawn, captured, Knight))
				ml.Add(NewPromotionMove(from, to, pawn, captured, Rook))
				ml.Add(NewPromotionMove(from, to, pawn, captured, Bishop))
			} else {
				ml.Add(NewMove(from, to, pawn, captured))
			}
		}
	}

	if !capturesOnly {
		addPawnMoves(push1&^promoRank, forward, false)
		addPawnMoves(push2, 2*forward, false)
	}
	addPawnMoves(capsWest&^promoRank, westBack, false)
	addPawnMoves(capsEast&^promoRank, eastBack, false)
	// Promotions count as noisy even without a capture.
	addPawnMoves(push1&promoRank, forward, true)
	addPawnMoves(capsWest&promoRank, westBack, true)
	addPawnMoves(capsEast&promoRank, eastBack, true)

	if p.enPassant != NoSquare {
		epBB := SquareBB(p.enPassant)
		var epFrom Bitboard
		if us == White {
			epFrom = (epBB.southWest() | epBB.southEast()) & pawns
		} else {
			epFrom = (epBB.northWest() | epBB.northEast()) & pawns
		}
		victim := NewPiece(Pawn, them)
		for epFrom != 0 {
			from := epFrom.PopLSB()
			ml.Add(NewEnPassantMove(from, p.enPassant, pawn, victim))
		}
	}
}

func (p *Position) generateCastlingMoves(ml *MoveList) {
	us := p.sideToMove
	them := us.Other()
	king := NewPiece(King, us)

	if us == White {
		if p.castling&WhiteKingSide != 0 &&
			p.all&(SquareBB(F1)|SquareBB(G1)) == 0 &&
			!p.IsAttacked(them, E1) && !p.IsAttacked(them, F1) && !p.IsAttacked(them, G1) {
			ml.Add(NewCastlingMove(E1, G1, king))
		}
		if p.castling&WhiteQueenSide != 0 &&
			p.all&(SquareBB(B1)|SquareBB(C1)|SquareBB(D1)) == 0 &&
			!p.IsAttacked(them, E1) && !p.IsAttacked(them, D1) && !p.IsAttacked(them, C1) {
			ml.Add(NewCastlingMove(E1, C1, king))
		}
	} else {
		if p.castling&BlackKingSide != 0 &&
			p.all&(SquareBB(F8)|SquareBB(G8)) == 0 &&
			!p.IsAttacked(them, E8) && !p.IsAttacked(them, F8) && !p.IsAttacked(them, G8) {
			ml.Add(NewCastlingMove(E8, G8, king))
		}
		if p.castling&BlackQueenSide != 0 &&
			p.all&(SquareBB(B8)|SquareBB(C8)|SquareBB(D8)) == 0 &&
			!p.IsAttacked(them, E8) && !p.IsAttacked(them, D8) && !p.IsAttacked(them, C8) {
			ml.Add(NewCastlingMove(E8, C8, king))
		}
	}
}

// isLegal reports whether the pseudo-legal move m does not leave the own
// king in check. pinned must come from Position.pinned for the current
// side to move.
func (p *Position) isLegal(m Move, pinned Bitboard) bool {
	us := p.sideToMove
	them := us.Other()
	ksq := p.kingSquare[us]
	from, to := m.From(), m.To()

	if from == ksq {
		if m.Type() == Castling {
			// Castling through check was rejected at generation.
			return p.checkers == 0
		}
		occ := p.all &^ SquareBB(from)
		return p.attackersTo(to, them, occ) == 0
	}

	if p.checkers != 0 {
		if p.checkers.PopCount() > 1 {
			return false // double check, only the king may move
		}
		checker := p.checkers.LSB()
		valid := SquareBB(checker) | Between(checker, ksq)
		if m.Type() == EnPassant {
			if epVictimSquare(to, us) == checker {
				return p.isLegalEnPassant(m)
			}
			return valid&SquareBB(to) != 0 && p.isLegalEnPassant(m)
		}
		if valid&SquareBB(to) == 0 {
			return false
		}
		return pinned&SquareBB(from) == 0 || Aligned(from, to, ksq)
	}

	if m.Type() == EnPassant {
		// Removing two pawns from one rank can expose the king sideways.
		return p.isLegalEnPassant(m)
	}
	if pinned&SquareBB(from) == 0 {
		return true
	}
	return Aligned(from, to, ksq)
}

func (p *Position) isLegalEnPassant(m Move) bool {
	us := p.sideToMove
	p.MakeMove(m)
	illegal := p.IsAttacked(p.sideToMove, p.kingSquare[us])
	p.UndoMove()
	return !illegal
}

// LegalMoves returns every legal move in generation order.
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateMoves(&ml)
	pinned := p.pinned()
	legal := make([]Move, 0, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		if p.isLegal(ml.Get(i), pinned) {
			legal = append(legal, ml.Get(i))
		}
	}
	return legal
}

// IsLegalMove reports whether the pseudo-legal move m is legal.
func (p *Position) IsLegalMove(m Move) bool {
	return p.isLegal(m, p.pinned())
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateMoves(&ml)
	pinned := p.pinned()
	for i := 0; i < ml.Len(); i++ {
		if p.isLegal(ml.Get(i), pinned) {
			return true
		}
	}
	return false
}
