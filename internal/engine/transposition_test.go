package engine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/chesscore/internal/board"
)

// sameCluster returns keys that share a cluster in a 1MB table and differ
// only in their tag.
func sameCluster(tag uint16) uint64 {
	return 0x1234_5678_9abc_0000 | uint64(tag)
}

func TestTTStoreThenProbe(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(0xdead_beef_cafe_f00d)
	m := board.NewMove(board.E2, board.E4)

	found, _, w := tt.Probe(key)
	require.False(t, found)
	w.Write(key, 123, true, BoundExact, 9, m, -45)

	found, data, _ := tt.Probe(key)
	require.True(t, found)
	assert.Equal(t, m, data.Move)
	assert.Equal(t, 123, data.Value)
	assert.Equal(t, -45, data.Eval)
	assert.Equal(t, 9, data.Depth)
	assert.Equal(t, BoundExact, data.Bound)
	assert.True(t, data.IsPV)
}

func TestTTNegativeValuesAndShallowDepths(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(42)
	_, _, w := tt.Probe(key)
	w.Write(key, -ValueMate+3, false, BoundUpper, DepthEntryOffset+1, board.NoMove, -ValueInfinite)

	found, data, _ := tt.Probe(key)
	require.True(t, found)
	assert.Equal(t, -ValueMate+3, data.Value)
	assert.Equal(t, -ValueInfinite, data.Eval)
	assert.Equal(t, DepthEntryOffset+1, data.Depth)
	assert.Equal(t, BoundUpper, data.Bound)
	assert.False(t, data.IsPV)
}

func TestTTUpdateKeepsDeeperResult(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(0x0102_0304_0506_0708)
	deep := board.NewMove(board.G1, board.F3)
	shallow := board.NewMove(board.B1, board.C3)

	_, _, w := tt.Probe(key)
	w.Write(key, 50, false, BoundLower, 12, deep, 10)

	// A much shallower bound only replaces the move.
	_, _, w = tt.Probe(key)
	w.Write(key, -20, false, BoundUpper, 2, shallow, 10)
	_, data, _ := tt.Probe(key)
	assert.Equal(t, 12, data.Depth)
	assert.Equal(t, 50, data.Value)
	assert.Equal(t, shallow, data.Move)

	// No move keeps the stored one.
	_, _, w = tt.Probe(key)
	w.Write(key, -20, false, BoundUpper, 2, board.NoMove, 10)
	_, data, _ = tt.Probe(key)
	assert.Equal(t, shallow, data.Move)

	// Exact bounds always overwrite.
	_, _, w = tt.Probe(key)
	w.Write(key, 7, false, BoundExact, 1, deep, 10)
	_, data, _ = tt.Probe(key)
	assert.Equal(t, 1, data.Depth)
	assert.Equal(t, 7, data.Value)
	assert.Equal(t, BoundExact, data.Bound)
	assert.Equal(t, deep, data.Move)
}

func TestTTReplacesShallowestEntry(t *testing.T) {
	tt := NewTranspositionTable(1)
	m := board.NewMove(board.D2, board.D4)

	depths := map[uint16]int{1: 10, 2: 2, 3: 8, 4: 6}
	for tag := uint16(1); tag <= 4; tag++ {
		key := sameCluster(tag)
		_, _, w := tt.Probe(key)
		w.Write(key, 0, false, BoundLower, depths[tag], m, 0)
	}

	key := sameCluster(5)
	found, _, w := tt.Probe(key)
	require.False(t, found)
	w.Write(key, 0, false, BoundLower, 4, m, 0)

	for tag, want := range map[uint16]bool{1: true, 2: false, 3: true, 4: true, 5: true} {
		found, _, _ := tt.Probe(sameCluster(tag))
		assert.Equal(t, want, found, "tag %d", tag)
	}
}

func TestTTPrefersStaleEntriesForReplacement(t *testing.T) {
	tt := NewTranspositionTable(1)
	m := board.NewMove(board.D2, board.D4)

	key := sameCluster(1)
	_, _, w := tt.Probe(key)
	w.Write(key, 0, false, BoundLower, 10, m, 0)

	for range 3 {
		tt.NewSearch()
	}
	for tag := uint16(2); tag <= 4; tag++ {
		key := sameCluster(tag)
		_, _, w := tt.Probe(key)
		w.Write(key, 0, false, BoundLower, 2, m, 0)
	}

	key = sameCluster(5)
	_, _, w = tt.Probe(key)
	w.Write(key, 0, false, BoundLower, 2, m, 0)

	found, _, _ := tt.Probe(sameCluster(1))
	assert.False(t, found, "old deep entry should be replaced")
	for tag := uint16(2); tag <= 5; tag++ {
		found, _, _ := tt.Probe(sameCluster(tag))
		assert.True(t, found, "tag %d", tag)
	}
}

func TestTTProbeRefreshesGeneration(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(99)
	_, _, w := tt.Probe(key)
	w.Write(key, 0, false, BoundLower, 5, board.NoMove, 0)

	tt.NewSearch()
	assert.Equal(t, 0, tt.HashFull(0))
	tt.Probe(key)
	assert.Equal(t, 1, tt.HashFull(0))
}

func TestTTClearAndHashFull(t *testing.T) {
	tt := NewTranspositionTable(1)
	rng := testRNG(1, 2)
	for range 200000 {
		key := rng.Uint64n(math.MaxUint64)
		_, _, w := tt.Probe(key)
		w.Write(key, 0, false, BoundLower, 3, board.NoMove, 0)
	}
	assert.Greater(t, tt.HashFull(0), 900)

	key := rng.Uint64n(math.MaxUint64)
	_, _, w := tt.Probe(key)
	w.Write(key, 0, false, BoundLower, 3, board.NoMove, 0)
	tt.Probe(key)
	assert.Greater(t, tt.HitRate(), 0.0)

	tt.Clear(4)
	assert.Equal(t, 0, tt.HashFull(0))
	found, _, _ := tt.Probe(rng.Uint64n(math.MaxUint64))
	assert.False(t, found)
}

func TestTTClearWithAnyThreadCount(t *testing.T) {
	for _, threads := range []int{-1, 0, 1, 3, 7, 1 << 20} {
		tt := NewTranspositionTable(1)
		key := sameCluster(42)
		_, _, w := tt.Probe(key)
		w.Write(key, 10, false, BoundExact, 5, board.NewMove(board.E2, board.E4), 0)
		tt.Clear(threads)

		found, _, _ := tt.Probe(key)
		assert.False(t, found, "threads=%d", threads)
		for i := range tt.clusters {
			for j := range tt.clusters[i] {
				require.Zero(t, tt.clusters[i][j].data.Load(), "threads=%d", threads)
			}
		}
	}
}

// stressMove derives the only move ever written for a tag.
func stressMove(tag uint16) board.Move {
	from := tag % 64
	return board.NewMove(board.Square(from), board.Square((from+1+tag/64%63)%64))
}

func TestTTConcurrentStress(t *testing.T) {
	tt := NewTranspositionTable(1)
	const (
		workers = 8
		keys    = 1 << 13
		rounds  = 200000
	)

	// Tags are unique per key, so a tag match identifies the key.
	table := make([]uint64, keys)
	rng := testRNG(7, 7)
	for i := range table {
		table[i] = rng.Uint64n(math.MaxUint64)&^0xffff | uint64(i+1)
	}

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			r := testRNG(uint64(w), 99)
			for range rounds {
				key := table[r.Intn(keys)]
				tag := uint16(key)
				found, data, writer := tt.Probe(key)
				if found {
					if data.Move != stressMove(tag) || data.Value != int(tag%1000) {
						t.Errorf("tag %d: read move %v value %d", tag, data.Move, data.Value)
						return nil
					}
				}
				writer.Write(key, int(tag%1000), r.Intn(2) == 0, Bound(1+r.Intn(3)), r.Intn(30), stressMove(tag), 0)
				if r.Intn(1000) == 0 {
					tt.NewSearch()
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestTTEvictsOnceFull(t *testing.T) {
	tt := NewTranspositionTable(1)
	rng := testRNG(3, 4)

	var last uint64
	for range 4 * tt.Size() {
		last = rng.Uint64n(math.MaxUint64)
		_, _, w := tt.Probe(last)
		require.NotNil(t, w.slot)
		w.Write(last, 1, false, BoundLower, 1+rng.Intn(20), board.NewMove(board.A2, board.A3), 0)
	}
	found, data, _ := tt.Probe(last)
	require.True(t, found)
	assert.Equal(t, board.NewMove(board.A2, board.A3), data.Move)
}

func TestValueToTTRoundTrip(t *testing.T) {
	for _, v := range []int{0, 35, -800, MateIn(5), MatedIn(12), ValueNone} {
		for _, ply := range []int{0, 3, 40} {
			assert.Equal(t, v, ValueFromTT(ValueToTT(v, ply), ply, 0), "v=%d ply=%d", v, ply)
		}
	}

	// Values outside the mate range are stored as they are.
	for _, v := range []int{ValueMateInMaxPly - 1, ValueMatedInMaxPly + 1} {
		assert.False(t, IsMateValue(v))
		assert.Equal(t, v, ValueToTT(v, 17))
	}
	assert.True(t, IsMateValue(MateIn(MaxPly)))
	assert.Equal(t, MateIn(3), ValueToTT(MateIn(8), 5))
	assert.Equal(t, MatedIn(3), ValueToTT(MatedIn(8), 5))

	// A mate further away than the fifty-move rule allows is not trusted.
	assert.Equal(t, ValueMateInMaxPly-1, ValueFromTT(ValueToTT(MateIn(30), 4), 4, 90))
	assert.Equal(t, ValueMatedInMaxPly+1, ValueFromTT(ValueToTT(MatedIn(30), 4), 4, 90))
}

func testRNG(a, b uint64) *frand.RNG {
	seed := make([]byte, 32)
	binary.LittleEndian.PutUint64(seed, a)
	binary.LittleEndian.PutUint64(seed[8:], b)
	return frand.NewCustom(seed, 1024, 12)
}
