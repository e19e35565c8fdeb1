package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
)

func TestOrderedPerftMatchesPerft(t *testing.T) {
	depth := 3
	if testing.Short() {
		depth = 2
	}

	tt := NewTranspositionTable(4)
	for _, fen := range orderingCorpus {
		pos, err := board.ParseFEN(fen)
		require.NoError(t, err)
		want := board.Perft(pos, depth)

		h := NewHistory(nil)
		// The second pass starts from a warm table and histories.
		for pass := range 2 {
			before := pos.Hash
			got := OrderedPerft(pos, depth, tt, h)
			assert.Equal(t, want, got, "%s pass %d", fen, pass)
			assert.Equal(t, before, pos.Hash)
		}
		tt.NewSearch()
	}
	assert.Positive(t, tt.HitRate())
}
