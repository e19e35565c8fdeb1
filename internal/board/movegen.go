package board

// GenMode selects which pseudo-legal moves GenerateMoves produces.
type GenMode uint8

const (
	// GenAll produces every pseudo-legal move.
	GenAll GenMode = iota
	// GenCaptures produces captures, en passant and queen promotions.
	GenCaptures
	// GenQuiets produces non-captures, under-promotions and castling.
	GenQuiets
)

// GenerateMoves appends the pseudo-legal moves of the given mode to ml.
// Non-king moves are restricted to evasions when in check; king moves are
// not, and are checked by Legal.
func (p *Position) GenerateMoves(ml *MoveList, mode GenMode) {
	us, them := p.SideToMove, p.SideToMove.Other()
	ksq := p.KingSquare[us]

	var target Bitboard
	switch mode {
	case GenCaptures:
		target = p.Occupied[them]
	case GenQuiets:
		target = ^p.AllOccupied
	default:
		target = ^p.Occupied[us]
	}

	if !p.Checkers.MoreThanOne() {
		checkMask := Universe
		if p.Checkers != 0 {
			checkMask = Between(ksq, p.Checkers.LSB()) | p.Checkers
		}

		p.generatePawnMoves(ml, mode, checkMask)
		for pt := Knight; pt <= Queen; pt++ {
			for b := p.Pieces(us, pt); b != 0; {
				from := b.PopLSB()
				addMoves(ml, from, Attacks(pt, from, p.AllOccupied)&target&checkMask)
			}
		}
	}

	addMoves(ml, ksq, kingAttacks[ksq]&target)

	if mode != GenCaptures && p.Checkers == 0 {
		for _, cr := range [2]CastlingRights{castlingRight(us, true), castlingRight(us, false)} {
			if p.CastlingRights&cr != 0 && !p.CastlingImpeded(cr) {
				ml.Add(NewCastling(ksq, p.castle.rookSquare[cr]))
			}
		}
	}
}

func addMoves(ml *MoveList, from Square, targets Bitboard) {
	for targets != 0 {
		ml.Add(NewMove(from, targets.PopLSB()))
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, mode GenMode, checkMask Bitboard) {
	us, them := p.SideToMove, p.SideToMove.Other()
	up := PawnPush(us)
	rank7 := RankMask[6]
	rank3 := RankMask[2]
	if us == Black {
		rank7, rank3 = RankMask[1], RankMask[5]
	}

	pawns := p.Pieces(us, Pawn)
	promoting := pawns & rank7
	others := pawns &^ rank7
	empty := ^p.AllOccupied
	enemies := p.Occupied[them]

	if mode != GenCaptures {
		single := others.Forward(us) & empty
		double := (single & rank3).Forward(us) & empty & checkMask
		single &= checkMask
		for single != 0 {
			to := single.PopLSB()
			ml.Add(NewMove(Square(int(to)-up), to))
		}
		for double != 0 {
			to := double.PopLSB()
			ml.Add(NewMove(Square(int(to)-2*up), to))
		}
	}

	for promoting != 0 {
		from := promoting.PopLSB()
		targets := (pawnAttacks[us][from]&enemies | SquareBB(Square(int(from)+up))&empty) & checkMask
		for targets != 0 {
			to := targets.PopLSB()
			if mode != GenQuiets {
				ml.Add(NewPromotion(from, to, Queen))
			}
			if mode != GenCaptures {
				ml.Add(NewPromotion(from, to, Rook))
				ml.Add(NewPromotion(from, to, Bishop))
				ml.Add(NewPromotion(from, to, Knight))
			}
		}
	}

	if mode == GenQuiets {
		return
	}

	for b := others; b != 0; {
		from := b.PopLSB()
		addMoves(ml, from, pawnAttacks[us][from]&enemies&checkMask)
	}

	if p.EnPassant != NoSquare {
		// Under check an en passant capture only helps if it removes the checker.
		victim := Square(int(p.EnPassant) - up)
		if p.Checkers != 0 && !p.Checkers.IsSet(victim) {
			return
		}
		for b := others & pawnAttacks[them][p.EnPassant]; b != 0; {
			ml.Add(NewEnPassant(b.PopLSB(), p.EnPassant))
		}
	}
}

// GenerateLegalMoves returns every legal move in the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateLegal(ml)
	return ml
}

func (p *Position) generateLegal(ml *MoveList) {
	var pseudo MoveList
	p.GenerateMoves(&pseudo, GenAll)

	us := p.SideToMove
	pinned := p.Blockers[us] & p.Occupied[us]
	ksq := p.KingSquare[us]
	for _, m := range pseudo.Slice() {
		from := m.From()
		if (pinned.IsSet(from) || from == ksq || m.IsEnPassant()) && !p.Legal(m) {
			continue
		}
		ml.Add(m)
	}
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.generateLegal(&ml)
	return ml.Len() > 0
}

// IsCheckmate returns true if the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the side to move has no legal move and is
// not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}
