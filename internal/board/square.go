// Package board implements the chess position, attack tables, move
// generation and legality rules on top of bitboards.
package board

import (
	"errors"
	"fmt"
)

// ErrInvalidSquare is returned when square text cannot be parsed.
var ErrInvalidSquare = errors.New("invalid square")

// Square represents a square on the chess board (0-63).
// Uses Little-Endian Rank-File Mapping: A1=0, H1=7, A8=56, H8=63.
type Square uint8

// Square constants for all 64 squares.
const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// File returns the file of the square (0=a, 7=h).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank of the square (0=1st rank, 7=8th rank).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return NewSquare(file, rank), nil
}

// IsValid returns true if the square is on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// Relative maps a square given from White's point of view to the
// equivalent square for c (A1 for Black becomes A8).
func (sq Square) Relative(c Color) Square {
	return sq ^ Square(56*int(c))
}

// RelativeRank returns the rank from a given color's perspective.
func (sq Square) RelativeRank(c Color) int {
	return sq.Relative(c).Rank()
}

// PawnPush returns the square offset of a single pawn push for c.
func PawnPush(c Color) int {
	if c == White {
		return 8
	}
	return -8
}

// Distance returns the Chebyshev (king-step) distance between two squares.
func Distance(a, b Square) int {
	return max(abs(a.File()-b.File()), abs(a.Rank()-b.Rank()))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
