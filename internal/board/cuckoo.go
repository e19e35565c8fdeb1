package board

// Cuckoo table of reversible piece moves, keyed by the hash delta each move
// produces. It lets HasGameCycle spot a pending repetition in O(1) per ply.
const cuckooSize = 8192

var (
	cuckooKeys  [cuckooSize]uint64
	cuckooMoves [cuckooSize]Move
	cuckooCount int
)

func cuckooH1(h uint64) int { return int(h & (cuckooSize - 1)) }
func cuckooH2(h uint64) int { return int((h >> 16) & (cuckooSize - 1)) }

func initCuckoo() {
	for pc := WhitePawn; pc < NoPiece; pc++ {
		if pc.Type() == Pawn {
			continue
		}
		for s1 := A1; s1 <= H8; s1++ {
			for s2 := s1 + 1; s2 <= H8; s2++ {
				if !Attacks(pc.Type(), s1, Empty).IsSet(s2) {
					continue
				}
				move := NewMove(s1, s2)
				key := zobristPiece[pc][s1] ^ zobristPiece[pc][s2] ^ zobristSideToMove
				i := cuckooH1(key)
				for {
					cuckooKeys[i], key = key, cuckooKeys[i]
					cuckooMoves[i], move = move, cuckooMoves[i]
					if move == NoMove {
						break
					}
					if i == cuckooH1(key) {
						i = cuckooH2(key)
					} else {
						i = cuckooH1(key)
					}
				}
				cuckooCount++
			}
		}
	}
}

// HasGameCycle reports whether the side to move can play a move that
// repeats an earlier position, or whether such a cycle already happened
// inside the search tree. history holds the hashes of the positions that
// preceded this one in game order, its last element being one ply back;
// it must not reach past a null move. ply is the distance from the search
// root.
func (p *Position) HasGameCycle(history []uint64, ply int) bool {
	n := len(history)
	end := min(p.HalfMoveClock, n)
	if end < 3 {
		return false
	}
	back := func(k int) uint64 { return history[n-k] }

	original := p.Hash
	other := original ^ back(1) ^ zobristSideToMove

	for i := 3; i <= end; i += 2 {
		other ^= back(i-1) ^ back(i) ^ zobristSideToMove
		if other != 0 {
			continue
		}

		moveKey := original ^ back(i)
		j := cuckooH1(moveKey)
		if cuckooKeys[j] != moveKey {
			j = cuckooH2(moveKey)
			if cuckooKeys[j] != moveKey {
				continue
			}
		}

		m := cuckooMoves[j]
		s1, s2 := m.From(), m.To()
		if Between(s1, s2)&p.AllOccupied != 0 {
			continue
		}
		if ply > i {
			return true
		}

		// At or before the root the cycle only counts if the mover is ours
		// and the earlier position had itself already repeated.
		sq := s1
		if p.Board[s1] == NoPiece {
			sq = s2
		}
		if p.Board[sq].Color() != p.SideToMove {
			continue
		}
		for k := i + 2; k <= n; k += 2 {
			if history[n-k] == back(i) {
				return true
			}
		}
	}
	return false
}
