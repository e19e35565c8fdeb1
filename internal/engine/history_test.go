package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
)

func TestGravityStaysWithinLimit(t *testing.T) {
	limits := []int{QuietHistoryLimit, CaptureHistoryLimit, ContinuationHistoryLimit, PawnHistoryLimit, CorrectionHistoryLimit}
	for _, limit := range limits {
		for _, bonus := range []int{1, 37, limit / 3, limit, 10 * limit} {
			var v16 int16
			var v32 int32
			for i := range 500 {
				b := bonus
				if i%7 == 6 {
					b = -bonus
				}
				gravity(&v16, b, limit)
				gravity(&v32, b, limit)
				require.LessOrEqual(t, abs(int(v16)), limit, "limit %d bonus %d", limit, bonus)
				require.LessOrEqual(t, abs(int(v32)), limit, "limit %d bonus %d", limit, bonus)
			}
			for range 500 {
				gravity(&v16, -bonus, limit)
				require.GreaterOrEqual(t, int(v16), -limit)
			}
		}
	}
}

func TestGravityConverges(t *testing.T) {
	var v int16
	for range 2000 {
		gravity(&v, 500, QuietHistoryLimit)
	}
	assert.InDelta(t, QuietHistoryLimit, int(v), 10)
}

func newTestSearch(t *testing.T, fen string) (*board.Position, *History, *SearchStack) {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	require.NoError(t, err)
	h := NewHistory(nil)
	return pos, h, NewSearchStack(h)
}

func mustMove(t *testing.T, pos *board.Position, s string) board.Move {
	t.Helper()
	m, err := board.ParseMove(s, pos)
	require.NoError(t, err)
	return m
}

func TestUpdateQuietStats(t *testing.T) {
	pos, h, ss := newTestSearch(t, board.StartFEN)

	// Play 1. e4 so the reply has a previous move and a continuation table.
	e4 := mustMove(t, pos, "e2e4")
	ss.Push(pos, 0, e4)
	pos.MakeMove(e4)

	best := mustMove(t, pos, "e7e5")
	tried := []board.Move{mustMove(t, pos, "a7a6"), mustMove(t, pos, "g8f6"), best}
	h.UpdateQuietStats(pos, ss, 1, best, tried, 300, 200)

	assert.Equal(t, best, ss.At(1).Killer)
	assert.Equal(t, best, h.CounterMove(e4))

	threats := AllThreats(pos)
	assert.Positive(t, h.ButterflyScore(pos, threats, best))
	assert.Positive(t, h.PawnScore(pos, best))
	assert.Negative(t, h.ButterflyScore(pos, threats, tried[0]))
	assert.Negative(t, h.ButterflyScore(pos, threats, tried[1]))

	pc := pos.MovedPiece(best)
	assert.Positive(t, int(h.Continuation[board.WhitePawn][board.E4][pc][board.E5]))
	assert.Positive(t, h.ContinuationScore(ss, 1, pc, board.E5))
	assert.Negative(t, h.ContinuationScore(ss, 1, board.BlackKnight, board.F6))

	// The root has no previous move, so nothing is read through the sentinel.
	assert.Zero(t, h.ContinuationScore(ss, 0, board.WhitePawn, board.E4))
	assert.Greater(t, h.QuietScore(pos, ss, 1, threats, best), h.QuietScore(pos, ss, 1, threats, tried[0]))
}

func TestUpdateQuietStatsSkipsNullMoves(t *testing.T) {
	pos, h, ss := newTestSearch(t, board.StartFEN)
	ss.Push(pos, 0, board.NullMove)
	undo := pos.MakeNullMove()
	defer pos.UnmakeNullMove(undo)

	best := mustMove(t, pos, "d7d5")
	h.UpdateQuietStats(pos, ss, 1, best, nil, 400, 400)

	assert.Equal(t, board.NoMove, h.CounterMove(board.NullMove))
	assert.Zero(t, h.sentinel[pos.MovedPiece(best)][board.D5])
}

func TestUpdateQuietStatsInCheckLimitsContinuation(t *testing.T) {
	pos, h, ss := newTestSearch(t, board.StartFEN)
	moves := []string{"e2e4", "e7e5", "d1h5", "b8c6", "h5e5"}
	for ply, s := range moves {
		m := mustMove(t, pos, s)
		ss.Push(pos, ply, m)
		pos.MakeMove(m)
	}
	require.True(t, pos.InCheck())
	ss.At(len(moves)).InCheck = true

	best := mustMove(t, pos, "f8e7")
	h.UpdateQuietStats(pos, ss, len(moves), best, nil, 500, 500)

	pc := pos.MovedPiece(best)
	assert.Positive(t, int(ss.At(4).ContinuationHistory[pc][board.E7]))
	assert.Positive(t, int(ss.At(3).ContinuationHistory[pc][board.E7]))
	assert.Zero(t, int(ss.At(2).ContinuationHistory[pc][board.E7]))
	assert.Zero(t, int(ss.At(1).ContinuationHistory[pc][board.E7]))
}

func TestUpdateCaptureStats(t *testing.T) {
	pos, h, _ := newTestSearch(t, "r3k2r/1P6/8/3pP3/8/2n5/8/R3K2R w KQkq d6 0 1")

	best := mustMove(t, pos, "e5d6")
	promo := mustMove(t, pos, "b7a8q")
	h.UpdateCaptureStats(pos, best, []board.Move{promo, best}, 250, 250)

	assert.Positive(t, h.CaptureScore(pos, best))
	assert.Negative(t, h.CaptureScore(pos, promo))
	assert.Positive(t, int(h.Capture[board.White][board.Pawn][board.D6][board.Pawn]))
	assert.Negative(t, int(h.Capture[board.White][board.Pawn][board.A8][board.Rook]))

	// A quiet best move leaves its own entry alone and still penalizes captures.
	quiet := mustMove(t, pos, "a1b1")
	h.UpdateCaptureStats(pos, quiet, []board.Move{best}, 250, 250)
	assert.Less(t, h.CaptureScore(pos, best), 250)
}

func TestHistoryClear(t *testing.T) {
	pos, h, ss := newTestSearch(t, board.StartFEN)
	m := mustMove(t, pos, "g1f3")
	h.UpdateQuietStats(pos, ss, 0, m, nil, 100, 100)
	h.Correction.Update(pos, 200, 0, 8)
	require.NotZero(t, h.Correction.Get(pos))

	h.Clear()
	assert.Zero(t, h.ButterflyScore(pos, AllThreats(pos), m))
	assert.Zero(t, h.PawnScore(pos, m))
	assert.Zero(t, h.Correction.Get(pos))
}

func TestCorrectionHistory(t *testing.T) {
	shared := NewSharedCorrection()
	a := NewCorrectionHistory(shared)
	b := NewCorrectionHistory(shared)
	pos := board.NewPosition()

	assert.Zero(t, a.Get(pos))
	a.Update(pos, 400, 100, 0)
	assert.Zero(t, a.Get(pos), "depth 0 is ignored")

	for range 100 {
		a.Update(pos, 400, 100, 10)
	}
	corr := a.Get(pos)
	assert.Positive(t, corr)
	assert.Equal(t, 100+corr, a.CorrectStaticEval(pos, 100))

	// The non-pawn tables are shared between workers.
	assert.Positive(t, b.Get(pos))
	assert.Less(t, b.Get(pos), corr)

	for range 1000 {
		a.Update(pos, -ValueMate, ValueMate, 100)
	}
	assert.Negative(t, a.Get(pos))
	assert.GreaterOrEqual(t, a.Get(pos), -(pawnCorrectionWeight+minorCorrectionWeight+majorCorrectionWeight+2*nonPawnCorrectionWeight)*CorrectionHistoryLimit/correctionScale)
	assert.Equal(t, ValueMatedInMaxPly+1, a.CorrectStaticEval(pos, -ValueMate))

	a.Age()
	assert.Negative(t, a.Get(pos))
	a.Clear()
	assert.Zero(t, b.Get(pos))
}

func TestContinuationPliesDampedDifferently(t *testing.T) {
	pos, h, ss := newTestSearch(t, board.StartFEN)
	line := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6"}
	for ply, s := range line {
		m := mustMove(t, pos, s)
		ss.Push(pos, ply, m)
		pos.MakeMove(m)
	}
	ply := len(line)

	h.UpdateContinuation(ss, ply, board.WhiteQueen, board.E2, 1000)

	// Each earlier ply contributes its own share of the same bonus.
	seen := make(map[int]int)
	total := 0
	for _, c := range continuationPlies {
		share := int(ss.At(ply-c.offset).ContinuationHistory[board.WhiteQueen][board.E2]) / c.divisor
		require.Positive(t, share, "offset %d", c.offset)
		prev, dup := seen[share]
		assert.False(t, dup, "offsets %d and %d contribute %d each", prev, c.offset, share)
		seen[share] = c.offset
		total += share
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, total, h.ContinuationScore(ss, ply, board.WhiteQueen, board.E2))
}
