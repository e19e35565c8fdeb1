package engine

import "github.com/hailam/chesscore/internal/board"

// SEE reports whether the static exchange on the target square of m wins
// at least threshold for the side to move. Captures alternate with the
// least valuable attacker, sliders uncovered behind a capturing piece
// join in, pinned pieces may not recapture while their pinner is on the
// board, and a king only captures onto an undefended square.
func SEE(pos *board.Position, m board.Move, threshold int) bool {
	// Castling, en passant and promotions are treated as even exchanges.
	if m.Flag() != board.FlagNormal {
		return threshold <= 0
	}

	from, to := m.From(), m.To()

	swap := board.PieceValue[pos.Board[to].Type()] - threshold
	if swap < 0 {
		return false
	}
	swap = board.PieceValue[pos.Board[from].Type()] - swap
	if swap <= 0 {
		return true
	}

	occupied := pos.AllOccupied ^ board.SquareBB(from) ^ board.SquareBB(to)
	stm := pos.SideToMove
	attackers := pos.AttackersTo(to, occupied)

	bishopsQueens := pos.Types[board.Bishop] | pos.Types[board.Queen]
	rooksQueens := pos.Types[board.Rook] | pos.Types[board.Queen]

	// uncover adds the sliders behind a piece leaving sq.
	uncover := func(sq board.Square, diagonal, straight bool) {
		beyond := board.RayPass(to, sq)
		if diagonal && beyond&bishopsQueens != 0 {
			attackers |= board.BishopAttacks(to, occupied) & bishopsQueens
		}
		if straight && beyond&rooksQueens != 0 {
			attackers |= board.RookAttacks(to, occupied) & rooksQueens
		}
	}

	res := true
	for {
		stm = stm.Other()
		attackers &= occupied

		stmAttackers := attackers & pos.Occupied[stm]
		if stmAttackers == 0 {
			break
		}

		if pos.Pinners[stm.Other()]&occupied != 0 {
			stmAttackers &^= pos.Blockers[stm]
			if stmAttackers == 0 {
				break
			}
		}

		res = !res

		var pt board.PieceType
		for pt = board.Pawn; pt < board.King; pt++ {
			if stmAttackers&pos.Types[pt] != 0 {
				break
			}
		}

		if pt == board.King {
			// The king cannot capture into a defended square.
			if attackers&^pos.Occupied[stm] != 0 {
				return !res
			}
			return res
		}

		swap = board.PieceValue[pt] - swap
		if swap < boolToInt(res) {
			break
		}

		sq := (stmAttackers & pos.Types[pt]).LSB()
		occupied ^= board.SquareBB(sq)

		switch pt {
		case board.Pawn, board.Bishop:
			uncover(sq, true, false)
		case board.Rook:
			uncover(sq, false, true)
		case board.Queen:
			uncover(sq, true, true)
		}
	}
	return res
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
