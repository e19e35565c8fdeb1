package board

import (
	"math"

	"lukechampine.com/frand"
)

// Zobrist hash keys. A fixed seed keeps keys stable across runs so stored
// hashes stay comparable.
var (
	zobristPiece      [12][64]uint64
	zobristEnPassant  [8]uint64
	zobristCastling   [16]uint64
	zobristSideToMove uint64
	zobristNoPawns    uint64
)

var zobristSeed = [32]byte{
	0x7a, 0x6f, 0x62, 0x72, 0x69, 0x73, 0x74, 0x2d, 0x6b, 0x65, 0x79, 0x73, 0x2d, 0x76, 0x31, 0x00,
	0x98, 0xf1, 0x07, 0xa2, 0xbe, 0xef, 0x12, 0x34, 0x0d, 0x15, 0xea, 0x5e, 0xc0, 0xff, 0xee, 0x42,
}

func initZobrist() {
	rng := frand.NewCustom(zobristSeed[:], 1024, 12)
	next := func() uint64 { return rng.Uint64n(math.MaxUint64) }

	for pc := WhitePawn; pc < NoPiece; pc++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[pc][sq] = next()
		}
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = next()
	}

	// Single rights get their own key; combinations are the XOR of their parts.
	for _, cr := range [4]CastlingRights{WhiteOO, WhiteOOO, BlackOO, BlackOOO} {
		zobristCastling[cr] = next()
	}
	for cr := CastlingRights(1); cr < 16; cr++ {
		if cr.MoreThanOne() {
			var key uint64
			for b := cr; b != 0; b &= b - 1 {
				key ^= zobristCastling[b&-b]
			}
			zobristCastling[cr] = key
		}
	}

	zobristSideToMove = next()
	zobristNoPawns = next()
}

// ComputeHash recomputes every hash partition of the position from scratch.
func (p *Position) ComputeHash() Keys {
	k := Keys{PawnKey: zobristNoPawns}
	for sq := A1; sq <= H8; sq++ {
		pc := p.Board[sq]
		if pc == NoPiece {
			continue
		}
		k.toggle(pc, sq)
	}
	if p.EnPassant != NoSquare {
		k.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	k.Hash ^= zobristCastling[p.CastlingRights]
	if p.SideToMove == Black {
		k.Hash ^= zobristSideToMove
	}
	return k
}

// Keys groups the position hash with the structural partitions used to
// index pawn and correction tables.
type Keys struct {
	Hash       uint64    // full position
	PawnKey    uint64    // pawns only
	NonPawnKey [2]uint64 // non-pawn pieces per color, king included
	MinorKey   uint64    // knights, bishops and kings
	MajorKey   uint64    // rooks, queens and kings
}

// toggle adds or removes pc on sq from every partition it belongs to.
func (k *Keys) toggle(pc Piece, sq Square) {
	key := zobristPiece[pc][sq]
	k.Hash ^= key
	switch pc.Type() {
	case Pawn:
		k.PawnKey ^= key
		return
	case Knight, Bishop:
		k.MinorKey ^= key
	case Rook, Queen:
		k.MajorKey ^= key
	case King:
		k.MinorKey ^= key
		k.MajorKey ^= key
	}
	k.NonPawnKey[pc.Color()] ^= key
}
