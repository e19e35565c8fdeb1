package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// PieceType represents the kind of a chess piece regardless of color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// Char returns the lowercase letter used for the piece type in position
// and move text.
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return "pnbrqk"[pt]
}

// PieceValue is the exchange value of each piece type, used by static
// exchange evaluation and capture ordering. The king has no exchange value.
var PieceValue = [7]int{208, 781, 825, 1276, 2538, 0, 0}

// Piece combines PieceType and Color into a single value.
// Encoded as: pieceType + color*6
type Piece uint8

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
	NoPiece
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// String returns the position-text letter for the piece, uppercase for
// White and lowercase for Black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string("PNBRQKpnbrqk"[p])
}

// PieceFromChar converts a position-text letter to a Piece.
func PieceFromChar(c byte) Piece {
	for i := WhitePawn; i < NoPiece; i++ {
		if "PNBRQKpnbrqk"[i] == c {
			return i
		}
	}
	return NoPiece
}

// Value returns the exchange value of the piece.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
