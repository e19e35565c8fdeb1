package board

import "strings"

// ToSAN renders a legal move in standard algebraic notation, including the
// check or mate suffix.
func (p *Position) ToSAN(m Move) string {
	if !m.IsOK() {
		return "--"
	}
	from, to := m.From(), m.To()
	pt := p.Board[from].Type()

	var sb strings.Builder
	switch {
	case m.IsCastling():
		if to > from {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	case pt == Pawn:
		if p.IsCapture(m) {
			sb.WriteByte(byte('a' + from.File()))
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion()])
		}
	default:
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(p.disambiguation(m))
		if p.IsCapture(m) {
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
	}

	if p.GivesCheck(m) {
		child := *p
		child.ApplyMove(m)
		if child.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other legal moves of the same piece type to the same square.
func (p *Position) disambiguation(m Move) string {
	from, to := m.From(), m.To()
	pt := p.Board[from].Type()
	if pt == King {
		return ""
	}

	var others Bitboard
	for _, o := range p.GenerateLegalMoves().Slice() {
		if o != m && o.To() == to && !o.IsCastling() && p.Board[o.From()].Type() == pt {
			others |= SquareBB(o.From())
		}
	}
	switch {
	case others == 0:
		return ""
	case others&FileMask[from.File()] == 0:
		return string(byte('a' + from.File()))
	case others&RankMask[from.Rank()] == 0:
		return string(byte('1' + from.Rank()))
	default:
		return from.String()
	}
}
