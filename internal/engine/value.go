package engine

// Search values and depths shared by the transposition table and the
// history tables.
const (
	MaxPly = 246

	ValueZero          = 0
	ValueDraw          = 0
	ValueMate          = 30000
	ValueMateInMaxPly  = ValueMate - MaxPly
	ValueMatedInMaxPly = -ValueMateInMaxPly
	ValueInfinite      = 31000
	ValueNone          = 31010

	// DepthEntryOffset is the shallowest depth a table entry can hold.
	// Quiescence depths are stored down to it; anything lower is clamped.
	DepthEntryOffset = -3
	DepthNone        = DepthEntryOffset - 1
)

// MateIn returns the value of delivering mate at the given ply.
func MateIn(ply int) int {
	return ValueMate - ply
}

// MatedIn returns the value of being mated at the given ply.
func MatedIn(ply int) int {
	return -ValueMate + ply
}

// IsMateValue reports whether v encodes a forced mate for either side.
func IsMateValue(v int) bool {
	return v >= ValueMateInMaxPly || v <= ValueMatedInMaxPly
}
