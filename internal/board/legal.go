package board

// Legal reports whether the pseudo-legal move m leaves the mover's king
// safe. The result is undefined for moves that are not pseudo-legal.
func (p *Position) Legal(m Move) bool {
	us, them := p.SideToMove, p.SideToMove.Other()
	from, to := m.From(), m.To()
	ksq := p.KingSquare[us]

	switch {
	case m.IsEnPassant():
		// Both pawns leave the capture rank at once; look for a slider
		// that the pair was screening.
		capsq := Square(int(to) - PawnPush(us))
		occupied := (p.AllOccupied ^ SquareBB(from) ^ SquareBB(capsq)) | SquareBB(to)
		return RookAttacks(ksq, occupied)&p.PiecesOf2(them, Queen, Rook) == 0 &&
			BishopAttacks(ksq, occupied)&p.PiecesOf2(them, Queen, Bishop) == 0

	case m.IsCastling():
		kto, _ := castlingTargets(us, to > from)
		step := -1
		if kto < from {
			step = 1
		}
		for s := int(kto); s != int(from); s += step {
			if p.AttackersTo(Square(s), p.AllOccupied)&p.Occupied[them] != 0 {
				return false
			}
		}
		// A Chess960 rook may be the piece screening the king from a slider
		// on the back rank.
		return !p.Chess960 || !p.Blockers[us].IsSet(to)

	case from == ksq:
		return p.AttackersTo(to, p.AllOccupied^SquareBB(from))&p.Occupied[them] == 0
	}

	return !p.Blockers[us].IsSet(from) || Aligned(from, to, ksq)
}

// PseudoLegal validates a move that did not come from the generator for
// this position, such as a transposition table or killer move.
func (p *Position) PseudoLegal(m Move) bool {
	if !m.IsOK() {
		return false
	}
	us, them := p.SideToMove, p.SideToMove.Other()
	from, to := m.From(), m.To()
	pc := p.Board[from]

	if m.Flag() != FlagNormal {
		var ml MoveList
		p.GenerateMoves(&ml, GenAll)
		return ml.Contains(m)
	}
	if m.Promotion() != Knight {
		return false
	}
	if pc == NoPiece || pc.Color() != us || p.Occupied[us].IsSet(to) {
		return false
	}

	if pc.Type() == Pawn {
		if (Rank1|Rank8).IsSet(to) {
			return false
		}
		up := PawnPush(us)
		capture := pawnAttacks[us][from]&p.Occupied[them]&SquareBB(to) != 0
		push := int(from)+up == int(to) && p.IsEmpty(to)
		double := int(from)+2*up == int(to) && from.RelativeRank(us) == 1 &&
			p.IsEmpty(to) && p.IsEmpty(Square(int(to)-up))
		if !capture && !push && !double {
			return false
		}
	} else if !Attacks(pc.Type(), from, p.AllOccupied).IsSet(to) {
		return false
	}

	if p.Checkers != 0 {
		if pc.Type() != King {
			if p.Checkers.MoreThanOne() {
				return false
			}
			if !(Between(p.KingSquare[us], p.Checkers.LSB()) | p.Checkers).IsSet(to) {
				return false
			}
		} else if p.AttackersTo(to, p.AllOccupied^SquareBB(from))&p.Occupied[them] != 0 {
			return false
		}
	}
	return true
}

// GivesCheck reports whether the pseudo-legal, legal move m checks the
// opponent.
func (p *Position) GivesCheck(m Move) bool {
	us, them := p.SideToMove, p.SideToMove.Other()
	from, to := m.From(), m.To()
	ksq := p.KingSquare[them]

	// King moves index CheckSquares[King], which is always empty.
	if p.CheckSquares[p.Board[from].Type()].IsSet(to) {
		return true
	}

	if p.Blockers[them].IsSet(from) {
		return !Aligned(from, to, ksq) || m.IsCastling()
	}

	switch m.Flag() {
	case FlagPromotion:
		return Attacks(m.Promotion(), to, p.AllOccupied^SquareBB(from)).IsSet(ksq)
	case FlagEnPassant:
		capsq := Square(int(to) - PawnPush(us))
		b := (p.AllOccupied ^ SquareBB(from) ^ SquareBB(capsq)) | SquareBB(to)
		return RookAttacks(ksq, b)&p.PiecesOf2(us, Queen, Rook) != 0 ||
			BishopAttacks(ksq, b)&p.PiecesOf2(us, Queen, Bishop) != 0
	case FlagCastling:
		_, rto := castlingTargets(us, to > from)
		return p.CheckSquares[Rook].IsSet(rto)
	}
	return false
}
