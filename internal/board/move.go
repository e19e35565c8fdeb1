package board

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is returned when move text does not describe a move in
// the given position.
var ErrInvalidMove = errors.New("invalid move")

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-13: promotion piece (0=Knight, 1=Bishop, 2=Rook, 3=Queen)
// bits 14-15: flags (0=normal, 1=promotion, 2=en passant, 3=castling)
//
// Castling is stored as the king capturing its own rook, so the target is
// the rook's origin square. This covers every rook file.
type Move uint16

// MoveFlag is the special-move tag of a Move.
type MoveFlag uint16

const (
	FlagNormal    MoveFlag = 0 << 14
	FlagPromotion MoveFlag = 1 << 14
	FlagEnPassant MoveFlag = 2 << 14
	FlagCastling  MoveFlag = 3 << 14
)

const (
	// NoMove represents the absence of a move.
	NoMove Move = 0
	// NullMove passes the turn. Its origin equals its target, which no
	// real move has.
	NullMove Move = 65
)

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | Move(FlagPromotion)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagEnPassant)
}

// NewCastling creates a castling move from the king square to the square of
// the rook it castles with.
func NewCastling(kingFrom, rookFrom Square) Move {
	return Move(kingFrom) | Move(rookFrom)<<6 | Move(FlagCastling)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square, the rook square for castling.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the special-move tag.
func (m Move) Flag() MoveFlag {
	return MoveFlag(m) & 0xC000
}

// Promotion returns the promotion piece type (only valid if IsPromotion() is true).
func (m Move) Promotion() PieceType {
	return PieceType((m>>12)&3) + Knight
}

func (m Move) IsPromotion() bool {
	return m.Flag() == FlagPromotion
}

func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsOK reports whether m is neither NoMove nor NullMove.
func (m Move) IsOK() bool {
	return m.From() != m.To()
}

// String returns the move in coordinate notation. Castling is printed as the
// king's two-square step; use StringFor for Chess960 output.
func (m Move) String() string {
	return m.StringFor(false)
}

// StringFor returns the move in coordinate notation. In Chess960 castling
// is printed as the king moving onto its rook.
func (m Move) StringFor(chess960 bool) string {
	switch m {
	case NoMove, NullMove:
		return "0000"
	}
	from, to := m.From(), m.To()
	if m.IsCastling() && !chess960 {
		file := 2
		if to > from {
			file = 6
		}
		to = NewSquare(file, from.Rank())
	}
	s := from.String() + to.String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// ParseMove resolves coordinate notation against pos. Castling is accepted
// both as the king's two-square step and as king-takes-own-rook.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q: %w", ErrInvalidMove, s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q: %w", ErrInvalidMove, s, err)
	}

	pc := pos.Board[from]
	if pc == NoPiece || pc.Color() != pos.SideToMove {
		return NoMove, fmt.Errorf("%w: %q: no piece to move on %s", ErrInvalidMove, s, from)
	}

	var m Move
	switch {
	case len(s) == 5:
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: %q: bad promotion piece %q", ErrInvalidMove, s, s[4])
		}
		m = NewPromotion(from, to, promo)
	case pc.Type() == King && pos.Board[to] == NewPiece(Rook, pos.SideToMove):
		m = NewCastling(from, to)
	case pc.Type() == King && !pos.Chess960 && abs(from.File()-to.File()) == 2:
		cr := castlingRight(pos.SideToMove, to > from)
		m = NewCastling(from, pos.castle.rookSquare[cr])
	case pc.Type() == Pawn && to == pos.EnPassant:
		m = NewEnPassant(from, to)
	default:
		m = NewMove(from, to)
	}

	if !pos.PseudoLegal(m) || !pos.Legal(m) {
		return NoMove, fmt.Errorf("%w: %q is not legal here", ErrInvalidMove, s)
	}
	return m, nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// Filter keeps the moves for which keep returns true, preserving order.
func (ml *MoveList) Filter(keep func(Move) bool) {
	n := 0
	for i := 0; i < ml.count; i++ {
		if keep(ml.moves[i]) {
			ml.moves[n] = ml.moves[i]
			n++
		}
	}
	ml.count = n
}
