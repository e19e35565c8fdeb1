package engine

import (
	"golang.org/x/exp/constraints"

	"github.com/hailam/chesscore/internal/board"
)

// History table bounds. Every cell stays within [-limit, limit].
const (
	QuietHistoryLimit        = 7183
	CaptureHistoryLimit      = 10692
	ContinuationHistoryLimit = 30000
	PawnHistoryLimit         = 8192

	PawnHistorySize = 1024
)

// continuationPlies lists how far back a continuation table reaches, with
// the weight (out of 1024) its updates receive and the divisor its score is
// read with. Together they damp every ply by a different factor.
var continuationPlies = [...]struct {
	offset, weight, divisor int
}{
	{1, 1024, 1},
	{2, 656, 1},
	{3, 326, 2},
	{4, 536, 2},
	{6, 537, 3},
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

func abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// gravity applies the shared history update rule: large bonuses move the
// cell less the closer it already is to the bound.
func gravity[T constraints.Signed](cell *T, bonus, limit int) {
	bonus = clamp(bonus, -limit, limit)
	v := int(*cell)
	v += bonus - v*abs(bonus)/limit
	*cell = T(clamp(v, -limit, limit))
}

// ButterflyHistory scores quiet moves by side, origin and target, split by
// whether each square is attacked by the opponent.
type ButterflyHistory [2][64][2][64][2]int16

// CaptureHistory scores captures by side, moving piece, target and
// captured piece type.
type CaptureHistory [2][6][64][6]int16

// PieceToHistory is the continuation table reached through one earlier
// move, indexed by the current moving piece and target.
type PieceToHistory [12][64]int16

// ContinuationHistory is indexed by the earlier move's piece and target.
type ContinuationHistory [12][64]PieceToHistory

// PawnHistory scores quiet moves by pawn structure.
type PawnHistory [PawnHistorySize][12][64]int16

// History holds one worker's move-ordering statistics. The correction
// tables are shared through Correction.
type History struct {
	Butterfly    ButterflyHistory
	Capture      CaptureHistory
	Continuation ContinuationHistory
	Pawn         PawnHistory
	CounterMoves [64][64]board.Move

	Correction *CorrectionHistory

	// sentinel is read by stack entries that have no move behind them.
	sentinel PieceToHistory
}

// NewHistory creates empty history tables backed by the given shared
// correction state. A nil shared state gives the worker its own.
func NewHistory(shared *SharedCorrection) *History {
	return &History{Correction: NewCorrectionHistory(shared)}
}

// Clear resets the tables for a new game.
func (h *History) Clear() {
	corr := h.Correction
	*h = History{Correction: corr}
	corr.Clear()
}

// threatened returns 1 if sq is attacked by the opponent, else 0.
func threatened(threats board.Bitboard, sq board.Square) int {
	if threats.IsSet(sq) {
		return 1
	}
	return 0
}

func pawnIndex(pos *board.Position) int {
	return int(pos.PawnKey & (PawnHistorySize - 1))
}

// ButterflyScore returns the quiet history of m for the side to move.
func (h *History) ButterflyScore(pos *board.Position, threats board.Bitboard, m board.Move) int {
	from, to := m.From(), m.To()
	return int(h.Butterfly[pos.SideToMove][from][threatened(threats, from)][to][threatened(threats, to)])
}

// PawnScore returns the pawn-structure history of m.
func (h *History) PawnScore(pos *board.Position, m board.Move) int {
	return int(h.Pawn[pawnIndex(pos)][pos.MovedPiece(m)][m.To()])
}

// ContinuationScore sums the continuation histories of a piece moving to
// a square, reached through the moves made before ply.
func (h *History) ContinuationScore(ss *SearchStack, ply int, pc board.Piece, to board.Square) int {
	score := 0
	for _, c := range continuationPlies {
		score += int(ss.At(ply-c.offset).ContinuationHistory[pc][to]) / c.divisor
	}
	return score
}

// QuietScore combines the quiet, pawn and continuation histories into the
// ordering score of a quiet move.
func (h *History) QuietScore(pos *board.Position, ss *SearchStack, ply int, threats board.Bitboard, m board.Move) int {
	return 2*h.ButterflyScore(pos, threats, m) +
		2*h.PawnScore(pos, m) +
		h.ContinuationScore(ss, ply, pos.MovedPiece(m), m.To())
}

// capturedType is the piece type m removes; en passant and promotions
// without a victim count as pawns.
func capturedType(pos *board.Position, m board.Move) board.PieceType {
	if pt := pos.CapturedBy(m).Type(); pt < board.King {
		return pt
	}
	return board.Pawn
}

// CaptureScore returns the capture history of m.
func (h *History) CaptureScore(pos *board.Position, m board.Move) int {
	moved := pos.MovedPiece(m).Type()
	return int(h.Capture[pos.SideToMove][moved][m.To()][capturedType(pos, m)])
}

// CounterMove returns the recorded reply to prev.
func (h *History) CounterMove(prev board.Move) board.Move {
	if !prev.IsOK() {
		return board.NoMove
	}
	return h.CounterMoves[prev.From()][prev.To()]
}

func (h *History) updateButterfly(pos *board.Position, threats board.Bitboard, m board.Move, bonus int) {
	from, to := m.From(), m.To()
	gravity(&h.Butterfly[pos.SideToMove][from][threatened(threats, from)][to][threatened(threats, to)], bonus, QuietHistoryLimit)
}

func (h *History) updatePawn(pos *board.Position, m board.Move, bonus int) {
	gravity(&h.Pawn[pawnIndex(pos)][pos.MovedPiece(m)][m.To()], bonus, PawnHistoryLimit)
}

// UpdateContinuation applies bonus to the continuation tables of every
// earlier move that has one. Only the two most recent are touched while
// in check.
func (h *History) UpdateContinuation(ss *SearchStack, ply int, pc board.Piece, to board.Square, bonus int) {
	inCheck := ss.At(ply).InCheck
	for _, c := range continuationPlies {
		if inCheck && c.offset > 2 {
			break
		}
		prev := ss.At(ply - c.offset)
		if !prev.CurrentMove.IsOK() {
			continue
		}
		gravity(&prev.ContinuationHistory[pc][to], bonus*c.weight/1024, ContinuationHistoryLimit)
	}
}

func (h *History) updateCapture(pos *board.Position, m board.Move, bonus int) {
	moved := pos.MovedPiece(m).Type()
	gravity(&h.Capture[pos.SideToMove][moved][m.To()][capturedType(pos, m)], bonus, CaptureHistoryLimit)
}

// UpdateQuietStats rewards best, a quiet move that caused a cutoff at ply,
// and penalizes the quiet moves tried before it. The move becomes the
// killer at ply and the counter move to the previous move.
func (h *History) UpdateQuietStats(pos *board.Position, ss *SearchStack, ply int, best board.Move, tried []board.Move, bonus, malus int) {
	threats := AllThreats(pos)

	ss.At(ply).Killer = best
	if prev := ss.At(ply - 1).CurrentMove; prev.IsOK() {
		h.CounterMoves[prev.From()][prev.To()] = best
	}

	h.updateButterfly(pos, threats, best, bonus)
	h.updatePawn(pos, best, bonus)
	h.UpdateContinuation(ss, ply, pos.MovedPiece(best), best.To(), bonus)

	for _, m := range tried {
		if m == best {
			continue
		}
		h.updateButterfly(pos, threats, m, -malus)
		h.updatePawn(pos, m, -malus)
		h.UpdateContinuation(ss, ply, pos.MovedPiece(m), m.To(), -malus)
	}
}

// UpdateCaptureStats rewards best when it is a capture and penalizes the
// captures tried before the cutoff.
func (h *History) UpdateCaptureStats(pos *board.Position, best board.Move, tried []board.Move, bonus, malus int) {
	if pos.IsCaptureStage(best) {
		h.updateCapture(pos, best, bonus)
	}
	for _, m := range tried {
		if m == best {
			continue
		}
		h.updateCapture(pos, m, -malus)
	}
}
