package engine

import (
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

const (
	CorrectionHistorySize  = 16384
	CorrectionHistoryMask  = CorrectionHistorySize - 1
	CorrectionHistoryLimit = 1024

	// Weights of each partition in the combined correction, out of
	// correctionScale.
	pawnCorrectionWeight    = 6995
	minorCorrectionWeight   = 6593
	majorCorrectionWeight   = 3970
	nonPawnCorrectionWeight = 7753
	correctionScale         = 131072
)

// SharedCorrection holds the non-pawn correction tables, shared by every
// worker. Cells are updated with a plain load and store; a concurrent
// update may be lost, never torn.
type SharedCorrection struct {
	nonPawn [2][2][CorrectionHistorySize]atomic.Int32 // side to move, piece color, key
}

// NewSharedCorrection creates empty shared correction tables.
func NewSharedCorrection() *SharedCorrection {
	return &SharedCorrection{}
}

// Clear resets the shared tables.
func (sc *SharedCorrection) Clear() {
	for stm := range sc.nonPawn {
		for c := range sc.nonPawn[stm] {
			for i := range sc.nonPawn[stm][c] {
				sc.nonPawn[stm][c][i].Store(0)
			}
		}
	}
}

// CorrectionHistory adjusts static evaluation based on search results.
// When the search discovers the static eval was wrong, the error is
// recorded under several structural keys of the position and applied to
// positions sharing them.
type CorrectionHistory struct {
	pawn  [2][CorrectionHistorySize]int16
	minor [2][CorrectionHistorySize]int16
	major [2][CorrectionHistorySize]int16

	shared *SharedCorrection
}

// NewCorrectionHistory creates a new correction history table. A nil
// shared table gets a private one.
func NewCorrectionHistory(shared *SharedCorrection) *CorrectionHistory {
	if shared == nil {
		shared = NewSharedCorrection()
	}
	return &CorrectionHistory{shared: shared}
}

func correctionIndex(key uint64) int {
	return int(key & CorrectionHistoryMask)
}

// Get returns the correction value for a position.
// The correction should be added to the static evaluation.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	stm := pos.SideToMove
	pcv := int(ch.pawn[stm][correctionIndex(pos.PawnKey)])
	micv := int(ch.minor[stm][correctionIndex(pos.MinorKey)])
	macv := int(ch.major[stm][correctionIndex(pos.MajorKey)])
	wnpcv := int(ch.shared.nonPawn[stm][board.White][correctionIndex(pos.NonPawnKey[board.White])].Load())
	bnpcv := int(ch.shared.nonPawn[stm][board.Black][correctionIndex(pos.NonPawnKey[board.Black])].Load())

	return (pawnCorrectionWeight*pcv +
		minorCorrectionWeight*micv +
		majorCorrectionWeight*macv +
		nonPawnCorrectionWeight*(wnpcv+bnpcv)) / correctionScale
}

// CorrectStaticEval applies the correction to a raw evaluation, keeping
// the result outside the mate range.
func (ch *CorrectionHistory) CorrectStaticEval(pos *board.Position, eval int) int {
	return clamp(eval+ch.Get(pos), ValueMatedInMaxPly+1, ValueMateInMaxPly-1)
}

// Update records a correction based on the difference between
// the static evaluation and the search result.
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval, depth int) {
	if depth < 1 {
		return
	}

	// Deeper searches are more reliable.
	bonus := clamp((searchScore-staticEval)*depth/8, -CorrectionHistoryLimit/4, CorrectionHistoryLimit/4)

	stm := pos.SideToMove
	gravity(&ch.pawn[stm][correctionIndex(pos.PawnKey)], bonus, CorrectionHistoryLimit)
	gravity(&ch.minor[stm][correctionIndex(pos.MinorKey)], bonus, CorrectionHistoryLimit)
	gravity(&ch.major[stm][correctionIndex(pos.MajorKey)], bonus, CorrectionHistoryLimit)

	for _, c := range [2]board.Color{board.White, board.Black} {
		cell := &ch.shared.nonPawn[stm][c][correctionIndex(pos.NonPawnKey[c])]
		v := cell.Load()
		gravity(&v, bonus, CorrectionHistoryLimit)
		cell.Store(v)
	}
}

// Clear resets all correction values, including the shared tables.
func (ch *CorrectionHistory) Clear() {
	ch.pawn = [2][CorrectionHistorySize]int16{}
	ch.minor = [2][CorrectionHistorySize]int16{}
	ch.major = [2][CorrectionHistorySize]int16{}
	ch.shared.Clear()
}

// Age scales down the worker's correction values between games.
func (ch *CorrectionHistory) Age() {
	for stm := range ch.pawn {
		for i := range ch.pawn[stm] {
			ch.pawn[stm][i] /= 2
			ch.minor[stm][i] /= 2
			ch.major[stm][i] /= 2
		}
	}
}
