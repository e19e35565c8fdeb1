package engine

import "github.com/hailam/chesscore/internal/board"

// stackOffset is the number of sentinel entries below the root, enough
// for the deepest continuation lookup.
const stackOffset = 7

// StackEntry is the per-ply state of a search path.
type StackEntry struct {
	Ply         int
	CurrentMove board.Move
	MovedPiece  board.Piece
	Killer      board.Move
	StaticEval  int
	InCheck     bool

	// ContinuationHistory is the table reached through CurrentMove.
	ContinuationHistory *PieceToHistory
}

// SearchStack holds one entry per ply of the current search path, with
// sentinels below the root so that lookups of earlier plies never fall
// off the front.
type SearchStack struct {
	entries [MaxPly + stackOffset + 2]StackEntry
	hist    *History
}

// NewSearchStack creates a stack whose entries read from h's tables.
func NewSearchStack(h *History) *SearchStack {
	ss := &SearchStack{hist: h}
	ss.Reset()
	return ss
}

// Reset clears every entry. Entries without a move point at an empty
// continuation table.
func (ss *SearchStack) Reset() {
	for i := range ss.entries {
		ss.entries[i] = StackEntry{
			Ply:                 i - stackOffset,
			StaticEval:          ValueNone,
			ContinuationHistory: &ss.hist.sentinel,
		}
	}
}

// At returns the entry for ply. Plies down to -stackOffset are valid.
func (ss *SearchStack) At(ply int) *StackEntry {
	return &ss.entries[ply+stackOffset]
}

// Push records m, about to be made in pos, as the move at ply.
func (ss *SearchStack) Push(pos *board.Position, ply int, m board.Move) {
	e := ss.At(ply)
	e.CurrentMove = m
	e.InCheck = pos.InCheck()
	if !m.IsOK() {
		e.MovedPiece = board.NoPiece
		e.ContinuationHistory = &ss.hist.sentinel
		return
	}
	pc := pos.MovedPiece(m)
	e.MovedPiece = pc
	e.ContinuationHistory = &ss.hist.Continuation[pc][m.To()]
}

// Pop clears the move at ply after it has been unmade.
func (ss *SearchStack) Pop(ply int) {
	e := ss.At(ply)
	e.CurrentMove = board.NoMove
	e.MovedPiece = board.NoPiece
	e.ContinuationHistory = &ss.hist.sentinel
}
