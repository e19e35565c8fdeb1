package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
)

func TestSEE(t *testing.T) {
	pawn := board.PieceValue[board.Pawn]
	knight := board.PieceValue[board.Knight]
	rook := board.PieceValue[board.Rook]

	tests := []struct {
		name  string
		fen   string
		move  string
		value int // exact exchange result
	}{
		{
			name:  "undefended pawn",
			fen:   "1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - - 0 1",
			move:  "e1e5",
			value: pawn,
		},
		{
			name:  "knight for pawn",
			fen:   "1k1r3q/1ppn3p/p4b2/4p3/8/P2N2P1/1PP1R1BP/2K1Q3 w - - 0 1",
			move:  "d3e5",
			value: pawn - knight,
		},
		{
			name:  "king cannot recapture a defended square",
			fen:   "8/8/4k3/4p3/8/2B5/8/K3R3 w - - 0 1",
			move:  "e1e5",
			value: pawn,
		},
		{
			name:  "king recaptures",
			fen:   "8/8/4k3/4p3/8/8/8/K3R3 w - - 0 1",
			move:  "e1e5",
			value: pawn - rook,
		},
		{
			name:  "pinned defender",
			fen:   "k7/1n6/8/2p5/8/8/6B1/2R3K1 w - - 0 1",
			move:  "c1c5",
			value: pawn,
		},
		{
			name:  "unpinned defender",
			fen:   "k7/1n6/8/2p5/8/8/8/2R3K1 w - - 0 1",
			move:  "c1c5",
			value: pawn - rook,
		},
		{
			name:  "x-ray behind a recapturing rook",
			fen:   "4r1k1/4r3/8/4p3/8/8/4R3/4R1K1 w - - 0 1",
			move:  "e2e5",
			value: pawn - rook,
		},
		{
			name:  "quiet move",
			fen:   board.StartFEN,
			move:  "g1f3",
			value: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := board.ParseFEN(tc.fen)
			require.NoError(t, err)
			m, err := board.ParseMove(tc.move, pos)
			require.NoError(t, err)

			assert.True(t, SEE(pos, m, tc.value), "SEE >= %d", tc.value)
			assert.False(t, SEE(pos, m, tc.value+1), "SEE >= %d", tc.value+1)
		})
	}
}

func TestSEESpecialMovesAreEven(t *testing.T) {
	pos, err := board.ParseFEN("r3k2r/1P6/8/3pP3/8/8/8/R3K2R w KQkq d6 0 1")
	require.NoError(t, err)

	for _, m := range []board.Move{
		board.NewCastling(board.E1, board.H1),
		board.NewEnPassant(board.E5, board.D6),
		board.NewPromotion(board.B7, board.A8, board.Queen),
	} {
		assert.True(t, SEE(pos, m, 0), m.String())
		assert.False(t, SEE(pos, m, 1), m.String())
	}
}
