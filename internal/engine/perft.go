package engine

import "github.com/hailam/chesscore/internal/board"

// OrderedPerft counts leaf nodes like board.Perft, visiting moves through a
// MoveOrderer. Each node stores the move with the largest subtree in the
// transposition table and rewards it in the history tables, so repeated
// runs exercise every ordering stage. The count must equal board.Perft.
func OrderedPerft(pos *board.Position, depth int, tt *TranspositionTable, h *History) int64 {
	ss := NewSearchStack(h)
	return orderedPerft(pos, ss, 0, depth, tt, h)
}

func orderedPerft(pos *board.Position, ss *SearchStack, ply, depth int, tt *TranspositionTable, h *History) int64 {
	if depth == 0 {
		return 1
	}

	found, data, w := tt.Probe(pos.Hash)
	ttMove := board.NoMove
	if found {
		ttMove = data.Move
	}

	var (
		nodes     int64
		best      = board.NoMove
		bestNodes = int64(-1)
		quiets    []board.Move
		captures  []board.Move
	)

	mo := NewMoveOrderer(pos, h, ss, ply, ttMove, depth)
	for m := mo.NextMove(); m != board.NoMove; m = mo.NextMove() {
		if !pos.Legal(m) {
			continue
		}

		ss.Push(pos, ply, m)
		undo := pos.MakeMove(m)
		n := orderedPerft(pos, ss, ply+1, depth-1, tt, h)
		pos.UnmakeMove(undo)
		ss.Pop(ply)

		nodes += n
		if n > bestNodes {
			best, bestNodes = m, n
		}
		if pos.IsCaptureStage(m) {
			captures = append(captures, m)
		} else {
			quiets = append(quiets, m)
		}
	}

	if best == board.NoMove {
		return 0
	}

	w.Write(pos.Hash, ValueZero, false, BoundExact, depth, best, ValueNone)
	bonus := min(depth*depth*16, 1200)
	if !pos.IsCaptureStage(best) {
		h.UpdateQuietStats(pos, ss, ply, best, quiets, bonus, bonus)
	}
	h.UpdateCaptureStats(pos, best, captures, bonus, bonus)
	return nodes
}
