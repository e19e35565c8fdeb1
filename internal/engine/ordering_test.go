package engine

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
)

var orderingCorpus = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"4k3/8/8/8/8/8/8/4K2R w K - 0 1",
	"4r1k1/4r3/8/4p3/8/8/4R3/4R1K1 w - - 0 1",
	"r1bqkbnr/pppp1ppp/2n5/4Q3/4P3/8/PPPP1PPP/RNB1KBNR b KQkq - 0 3",
}

// drain collects every move an orderer yields.
func drain(mo *MoveOrderer) []board.Move {
	var out []board.Move
	for m := mo.NextMove(); m != board.NoMove; m = mo.NextMove() {
		out = append(out, m)
	}
	return out
}

func pseudoLegal(pos *board.Position, mode board.GenMode) []board.Move {
	var ml board.MoveList
	pos.GenerateMoves(&ml, mode)
	return slices.Clone(ml.Slice())
}

func sorted(moves []board.Move) []board.Move {
	out := slices.Clone(moves)
	slices.Sort(out)
	return out
}

func TestOrdererFreeQueenCaptureFirst(t *testing.T) {
	pos, h, ss := newTestSearch(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	capture := mustMove(t, pos, "d2d5")

	// Without a cached or killer move the capture comes first.
	mo := NewMoveOrderer(pos, h, ss, 0, board.NoMove, 6)
	assert.Equal(t, capture, mo.NextMove())

	// With both, it follows the cached move and precedes the killer.
	ttMove := mustMove(t, pos, "e1f1")
	killer := mustMove(t, pos, "d2a2")
	ss.At(0).Killer = killer
	mo = NewMoveOrderer(pos, h, ss, 0, ttMove, 6)
	got := drain(mo)
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, []board.Move{ttMove, capture, killer}, got[:3])
}

func TestOrdererYieldsEveryMoveOnce(t *testing.T) {
	for _, fen := range orderingCorpus {
		pos, h, ss := newTestSearch(t, fen)
		all := pseudoLegal(pos, board.GenAll)
		quiets := pseudoLegal(pos, board.GenQuiets)

		// Exercise the cached, killer and counter stages with real moves.
		ttMove := all[len(all)/2]
		var killer, counter board.Move
		for _, m := range quiets {
			if pos.IsCaptureStage(m) {
				continue
			}
			if killer == board.NoMove {
				killer = m
			} else if counter == board.NoMove && m != killer {
				counter = m
			}
		}
		prev := board.NewMove(board.A1, board.B1)
		h.CounterMoves[board.A1][board.B1] = counter
		ss.At(0).CurrentMove = prev
		ss.At(1).Killer = killer

		got := drain(NewMoveOrderer(pos, h, ss, 1, ttMove, 5))
		assert.Equal(t, sorted(all), sorted(got), fen)
		assert.Equal(t, ttMove, got[0], fen)
	}
}

func TestOrdererIgnoresStaleMoves(t *testing.T) {
	pos, h, ss := newTestSearch(t, board.StartFEN)

	// Moves from another position: not pseudo-legal here.
	ttMove := board.NewMove(board.E4, board.E5)
	ss.At(0).Killer = board.NewMove(board.D1, board.H5)
	got := drain(NewMoveOrderer(pos, h, ss, 0, ttMove, 3))
	assert.Len(t, got, 20)
	assert.NotContains(t, got, ttMove)
}

func TestOrdererCapturesBeforeQuiets(t *testing.T) {
	pos, h, ss := newTestSearch(t, orderingCorpus[1])
	got := drain(NewMoveOrderer(pos, h, ss, 0, board.NoMove, 8))

	// Good captures, then quiets, then captures that lose material.
	i := 0
	for i < len(got) && pos.IsCaptureStage(got[i]) {
		assert.True(t, SEE(pos, got[i], -1000), got[i].String())
		i++
	}
	require.Positive(t, i)
	for i < len(got) && !pos.IsCapture(got[i]) {
		i++
	}
	for ; i < len(got); i++ {
		assert.True(t, pos.IsCapture(got[i]), got[i].String())
	}
}

func TestOrdererSkipQuietStages(t *testing.T) {
	pos, h, ss := newTestSearch(t, orderingCorpus[1])
	mo := NewMoveOrderer(pos, h, ss, 0, board.NoMove, 8)

	first := mo.NextMove()
	require.True(t, pos.IsCaptureStage(first))
	mo.SkipQuietStages()

	rest := drain(mo)
	for _, m := range rest {
		assert.True(t, pos.IsCaptureStage(m), m.String())
	}
	want := pseudoLegal(pos, board.GenCaptures)
	assert.Equal(t, sorted(want), sorted(append(rest, first)))
}

func TestQuiescenceOrdererOnlyWinningCaptures(t *testing.T) {
	for _, fen := range orderingCorpus {
		pos, h, ss := newTestSearch(t, fen)
		quiet := pseudoLegal(pos, board.GenQuiets)[0]

		got := drain(NewQuiescenceOrderer(pos, h, ss, 0, quiet, 0))
		for _, m := range got {
			assert.True(t, pos.IsCaptureStage(m), "%s %s", fen, m)
		}
		assert.NotContains(t, got, quiet)
	}
}

func TestProbCutOrdererThreshold(t *testing.T) {
	pos, h, ss := newTestSearch(t, orderingCorpus[3])
	const threshold = 300

	got := drain(NewProbCutOrderer(pos, h, ss, 0, board.NoMove, threshold))
	for _, m := range got {
		assert.True(t, SEE(pos, m, threshold), m.String())
	}
	for _, m := range pseudoLegal(pos, board.GenCaptures) {
		if SEE(pos, m, threshold) {
			assert.Contains(t, got, m)
		}
	}
}

func TestOrdererQuietsFollowHistory(t *testing.T) {
	pos, h, ss := newTestSearch(t, board.StartFEN)
	favored := mustMove(t, pos, "b1a3")
	for range 20 {
		h.UpdateQuietStats(pos, ss, 0, favored, nil, 1000, 0)
	}
	ss.At(0).Killer = board.NoMove

	got := drain(NewMoveOrderer(pos, h, ss, 0, board.NoMove, 4))
	assert.Equal(t, favored, got[0])
}
