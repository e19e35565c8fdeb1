package board

// Precomputed attack and geometry tables. They are filled once during
// package initialization and only read afterwards.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	betweenBB [64][64]Bitboard // squares strictly between two aligned squares
	lineBB    [64][64]Bitboard // full line through two aligned squares
	rayPassBB [64][64]Bitboard // ray from the first square through the second, beyond it
)

func init() {
	initMagics()
	initStepAttacks()
	initLines()
	initZobrist()
	initCuckoo()
}

func initStepAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		knightAttacks[sq] = (bb<<17)&NotFileA | (bb<<15)&NotFileH |
			(bb>>17)&NotFileH | (bb>>15)&NotFileA |
			(bb<<10)&NotFileAB | (bb<<6)&NotFileGH |
			(bb>>10)&NotFileGH | (bb>>6)&NotFileAB

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.PawnAttacksBB(White)
		pawnAttacks[Black][sq] = bb.PawnAttacksBB(Black)
	}
}

func initLines() {
	for s1 := A1; s1 <= H8; s1++ {
		for _, pt := range [2]PieceType{Bishop, Rook} {
			for s2 := A1; s2 <= H8; s2++ {
				if s1 == s2 || !Attacks(pt, s1, Empty).IsSet(s2) {
					continue
				}
				lineBB[s1][s2] = (Attacks(pt, s1, Empty)&Attacks(pt, s2, Empty)) | SquareBB(s1) | SquareBB(s2)
				betweenBB[s1][s2] = Attacks(pt, s1, SquareBB(s2)) & Attacks(pt, s2, SquareBB(s1))
				rayPassBB[s1][s2] = Attacks(pt, s2, SquareBB(s1)) & lineBB[s1][s2] &^ Attacks(pt, s1, SquareBB(s2)) &^ SquareBB(s1)
			}
		}
	}
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns the bishop attack bitboard for a square with given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	return m.Attacks[m.index(occupied)]
}

// RookAttacks returns the rook attack bitboard for a square with given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	return m.Attacks[m.index(occupied)]
}

// QueenAttacks returns the queen attack bitboard for a square with given occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// SlidingAttacks returns the attack set of a bishop, rook or queen.
func SlidingAttacks(pt PieceType, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return QueenAttacks(sq, occupied)
	}
	return Empty
}

// Attacks returns the attack set of any non-pawn piece type.
func Attacks(pt PieceType, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Knight:
		return knightAttacks[sq]
	case King:
		return kingAttacks[sq]
	default:
		return SlidingAttacks(pt, sq, occupied)
	}
}

// Between returns the squares strictly between two squares, or Empty if
// they do not share a rank, file or diagonal.
func Between(sq1, sq2 Square) Bitboard {
	return betweenBB[sq1][sq2]
}

// Line returns the full line through two squares, or Empty if they are
// not aligned.
func Line(sq1, sq2 Square) Bitboard {
	return lineBB[sq1][sq2]
}

// RayPass returns the squares on the ray that starts at from, passes
// through to, and continues beyond it to the board edge.
func RayPass(from, to Square) Bitboard {
	return rayPassBB[from][to]
}

// Aligned returns true if three squares are on the same line.
func Aligned(sq1, sq2, sq3 Square) bool {
	return lineBB[sq1][sq2].IsSet(sq3)
}
