package board

import (
	"math"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"
)

// Magic bitboards for sliding piece attacks. Multipliers are searched at
// startup with a seeded generator, so every process builds identical tables.

// magicAttempts bounds the search for a collision-free multiplier per square.
const magicAttempts = 1 << 22

// Magic holds the magic bitboard data for a single square.
type Magic struct {
	Mask    Bitboard // relevant occupancy, board edges excluded
	Magic   uint64
	Shift   uint8
	Attacks []Bitboard // window into the shared attack table
}

func (m *Magic) index(occupied Bitboard) uint64 {
	return (uint64(occupied&m.Mask) * m.Magic) >> m.Shift
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	bishopTable [0x1480]Bitboard
	rookTable   [0x19000]Bitboard
)

var magicSeed = [32]byte{
	0x63, 0x68, 0x65, 0x73, 0x73, 0x63, 0x6f, 0x72, 0x65, 0x2d, 0x6d, 0x61, 0x67, 0x69, 0x63, 0x73,
	0x17, 0x29, 0x3b, 0x4d, 0x5f, 0x71, 0x83, 0x95, 0xa7, 0xb9, 0xcb, 0xdd, 0xef, 0x01, 0x13, 0x25,
}

var (
	rookDirs   = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func initMagics() {
	rng := frand.NewCustom(magicSeed[:], 1024, 12)
	initSliderMagics(Rook, rookMagics[:], rookTable[:], rng)
	initSliderMagics(Bishop, bishopMagics[:], bishopTable[:], rng)
}

func initSliderMagics(pt PieceType, magics []Magic, table []Bitboard, rng *frand.RNG) {
	var occupancy, reference [4096]Bitboard
	var epoch [4096]int
	attempt := 0
	offset := 0
	total := 0

	for sq := A1; sq <= H8; sq++ {
		m := &magics[sq]
		m.Mask = relevantMask(pt, sq)
		bits := m.Mask.PopCount()
		m.Shift = uint8(64 - bits)
		m.Attacks = table[offset : offset+1<<bits]
		offset += 1 << bits

		// Carry-rippler over every subset of the mask.
		size := 0
		b := Empty
		for {
			occupancy[size] = b
			reference[size] = slidingAttacksSlow(pt, sq, b)
			size++
			b = (b - m.Mask) & m.Mask
			if b == 0 {
				break
			}
		}

		tries := 0
		for found := false; !found; {
			if tries == magicAttempts {
				log.Fatal().Str("piece", pt.String()).Str("square", sq.String()).
					Int("attempts", magicAttempts).Msg("magic-search-exhausted")
			}
			tries++
			m.Magic = sparseRandom(rng)
			if Bitboard((uint64(m.Mask)*m.Magic)>>56).PopCount() < 6 {
				continue
			}
			attempt++
			found = true
			for i := 0; i < size; i++ {
				idx := m.index(occupancy[i])
				if epoch[idx] < attempt {
					epoch[idx] = attempt
					m.Attacks[idx] = reference[i]
				} else if m.Attacks[idx] != reference[i] {
					found = false
					break
				}
			}
		}
		total += tries
	}
	log.Debug().Str("piece", pt.String()).Int("entries", offset).Int("attempts", total).Msg("magics-ready")
}

func sparseRandom(rng *frand.RNG) uint64 {
	return rng.Uint64n(math.MaxUint64) & rng.Uint64n(math.MaxUint64) & rng.Uint64n(math.MaxUint64)
}

// relevantMask returns the squares whose occupancy can change a slider's
// attack set from sq. The last square of every ray is excluded.
func relevantMask(pt PieceType, sq Square) Bitboard {
	edges := ((Rank1 | Rank8) &^ RankMask[sq.Rank()]) | ((FileA | FileH) &^ FileMask[sq.File()])
	return slidingAttacksSlow(pt, sq, Empty) &^ edges
}

// slidingAttacksSlow ray-casts the attack set of a rook or bishop.
func slidingAttacksSlow(pt PieceType, sq Square, occupied Bitboard) Bitboard {
	dirs := rookDirs
	if pt == Bishop {
		dirs = bishopDirs
	}
	var attacks Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			s := NewSquare(f, r)
			attacks |= SquareBB(s)
			if occupied.IsSet(s) {
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return attacks
}
