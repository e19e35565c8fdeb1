package engine

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// Bound indicates the type of value stored in the transposition table.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundUpper       // failed low
	BoundLower       // failed high
	BoundExact
)

const (
	ttClusterSize  = 4
	ttClusterBytes = 64 // 4 slots of two words each

	// The low three bits of genBound hold the bound and the PV flag; the
	// generation counter lives in the upper five.
	generationBits  = 3
	generationDelta = 1 << generationBits
	generationCycle = 255 + generationDelta
	generationMask  = (0xFF << generationBits) & 0xFF

	ttSampleEntries = 1000
)

// ttSlot stores one entry in two words. The verification tag is written
// to both so that a read racing a write of a different position sees a
// tag mismatch and is treated as a miss.
//
//	data:  tag:16 move:16 depth8:8 genBound:8 eval:16
//	check: value:16 tag:16
type ttSlot struct {
	data  atomic.Uint64
	check atomic.Uint64
}

type ttCluster [ttClusterSize]ttSlot

type ttEntry struct {
	tag      uint16
	move     board.Move
	depth8   uint8 // depth - DepthEntryOffset; zero means empty
	genBound uint8
	eval     int16
	value    int16
}

func (e ttEntry) pack() (data, check uint64) {
	data = uint64(e.tag) |
		uint64(e.move)<<16 |
		uint64(e.depth8)<<32 |
		uint64(e.genBound)<<40 |
		uint64(uint16(e.eval))<<48
	check = uint64(uint16(e.value)) | uint64(e.tag)<<16
	return data, check
}

func (e ttEntry) toData() TTData {
	return TTData{
		Move:  e.move,
		Value: int(e.value),
		Eval:  int(e.eval),
		Depth: int(e.depth8) + DepthEntryOffset,
		Bound: Bound(e.genBound & 0x3),
		IsPV:  e.genBound&0x4 != 0,
	}
}

// load reads both words. ok is false when they belong to different writes
// of different positions.
func (s *ttSlot) load() (e ttEntry, raw uint64, ok bool) {
	raw = s.data.Load()
	check := s.check.Load()
	e = ttEntry{
		tag:      uint16(raw),
		move:     board.Move(raw >> 16),
		depth8:   uint8(raw >> 32),
		genBound: uint8(raw >> 40),
		eval:     int16(raw >> 48),
		value:    int16(check),
	}
	return e, raw, uint16(check>>16) == e.tag
}

func (s *ttSlot) store(e ttEntry) {
	data, check := e.pack()
	s.check.Store(check)
	s.data.Store(data)
}

// relativeAge is the generation distance of genBound from gen, scaled by
// generationDelta.
func relativeAge(gen, genBound uint8) int {
	return (generationCycle + int(gen) - int(genBound)) & generationMask
}

// TTData is a decoded transposition table entry.
type TTData struct {
	Move  board.Move
	Value int
	Eval  int
	Depth int
	Bound Bound
	IsPV  bool
}

var ttMiss = TTData{Value: ValueNone, Eval: ValueNone, Depth: DepthNone}

// TranspositionTable is a hash table for storing search results, shared by
// all search workers without locking. Each slot is written as two atomic
// words and every read is verified against the position's tag.
type TranspositionTable struct {
	clusters   []ttCluster
	generation atomic.Uint32

	// Statistics
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table. The request is clamped to half of the
// machine's physical memory. All entries are lost.
func (tt *TranspositionTable) Resize(sizeMB int) {
	if total := memory.TotalMemory(); total > 0 {
		limit := int(total / 2 >> 20)
		if sizeMB > limit {
			log.Warn().Int("requested-mb", sizeMB).Int("limit-mb", limit).Msg("tt-size-clamped")
			sizeMB = limit
		}
	}
	sizeMB = max(sizeMB, 1)

	count := uint64(sizeMB) << 20 / ttClusterBytes
	tt.clusters = make([]ttCluster, count)
	tt.generation.Store(0)
	log.Debug().Int("mb", sizeMB).Uint64("clusters", count).Msg("tt-resized")
}

func (tt *TranspositionTable) generation8() uint8 {
	return uint8(tt.generation.Load())
}

// cluster maps the key onto the table by multiply-high, which covers any
// cluster count without modulo bias.
func (tt *TranspositionTable) cluster(key uint64) *ttCluster {
	hi, _ := bits.Mul64(key, uint64(len(tt.clusters)))
	return &tt.clusters[hi]
}

// Probe looks up a position. It returns whether the position was found,
// its data when it was, and a writer for the slot that should receive the
// result of searching it: the matching slot, an empty one, or the least
// valuable entry of the cluster.
func (tt *TranspositionTable) Probe(key uint64) (bool, TTData, TTWriter) {
	tt.probes.Add(1)

	cl := tt.cluster(key)
	tag := uint16(key)
	gen := tt.generation8()

	for i := range cl {
		s := &cl[i]
		e, raw, ok := s.load()
		if e.depth8 == 0 {
			return false, ttMiss, TTWriter{slot: s, gen: gen}
		}
		if e.tag == tag && ok {
			// Refresh the generation; losing this race to a writer is harmless.
			refreshed := raw&^(uint64(generationMask)<<40) | uint64(gen)<<40
			s.data.CompareAndSwap(raw, refreshed)
			tt.hits.Add(1)
			return true, e.toData(), TTWriter{slot: s, gen: gen}
		}
	}

	victim := &cl[0]
	e0, _, _ := victim.load()
	worst := int(e0.depth8) - relativeAge(gen, e0.genBound)
	for i := 1; i < ttClusterSize; i++ {
		e, _, _ := cl[i].load()
		if v := int(e.depth8) - relativeAge(gen, e.genBound); v < worst {
			worst = v
			victim = &cl[i]
		}
	}
	return false, ttMiss, TTWriter{slot: victim, gen: gen}
}

// TTWriter stores a search result into the slot chosen by Probe.
type TTWriter struct {
	slot *ttSlot
	gen  uint8
}

// Write records a search result. The move is kept unless a new one is
// given or the slot held another position. The rest of the entry is only
// overwritten by exact bounds, other positions, or results deep enough to
// be worth more than the stored one.
func (w TTWriter) Write(key uint64, value int, pv bool, b Bound, depth int, m board.Move, eval int) {
	if w.slot == nil {
		return
	}
	old, _, ok := w.slot.load()
	if !ok {
		// Torn by a concurrent writer: rewrite the whole entry.
		old = ttEntry{}
	}
	tag := uint16(key)
	e := old

	if m != board.NoMove || tag != old.tag {
		e.move = m
	}

	depth = min(max(depth, DepthEntryOffset+1), 255+DepthEntryOffset)
	var pvFlag uint8
	pvBonus := 0
	if pv {
		pvFlag, pvBonus = 0x4, 2
	}

	if b == BoundExact || tag != old.tag || old.depth8 == 0 ||
		depth-DepthEntryOffset+pvBonus+4 > int(old.depth8) {
		e.tag = tag
		e.depth8 = uint8(depth - DepthEntryOffset)
		e.genBound = w.gen | pvFlag | uint8(b)
		e.value = int16(value)
		e.eval = int16(eval)
	} else if e.move == old.move {
		return
	}
	w.slot.store(e)
}

// NewSearch advances the generation so that entries from earlier searches
// age out of the replacement scheme.
func (tt *TranspositionTable) NewSearch() {
	tt.generation.Add(generationDelta)
}

// Clear zeroes the table, splitting the work across the given number of
// goroutines.
func (tt *TranspositionTable) Clear(threads int) {
	threads = max(threads, 1)
	n := len(tt.clusters)
	stride := (n + threads - 1) / threads

	var wg sync.WaitGroup
	for start := 0; start < n; start += stride {
		part := tt.clusters[start:min(start+stride, n)]
		wg.Go(func() {
			for i := range part {
				for j := range part[i] {
					part[i][j].check.Store(0)
					part[i][j].data.Store(0)
				}
			}
		})
	}
	wg.Wait()

	tt.generation.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille of sampled entries written within the
// last maxAge searches.
func (tt *TranspositionTable) HashFull(maxAge int) int {
	gen := tt.generation8()
	clusters := min(ttSampleEntries/ttClusterSize, len(tt.clusters))
	if clusters == 0 {
		return 0
	}

	used := 0
	for i := 0; i < clusters; i++ {
		for j := range tt.clusters[i] {
			e, _, _ := tt.clusters[i][j].load()
			if e.depth8 != 0 && relativeAge(gen, e.genBound) <= maxAge*generationDelta {
				used++
			}
		}
	}
	return used * 1000 / (clusters * ttClusterSize)
}

// HitRate returns the probe hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.clusters)) * ttClusterSize
}

// ValueToTT converts a search value at ply into a value relative to the
// stored position, so mate distances survive transpositions.
func ValueToTT(v, ply int) int {
	if v == ValueNone || !IsMateValue(v) {
		return v
	}
	if v > 0 {
		return v + ply
	}
	return v - ply
}

// ValueFromTT is the inverse of ValueToTT. A mate that cannot be delivered
// before the fifty-move rule triggers is downgraded to the edge of the
// mate range.
func ValueFromTT(v, ply, halfMoveClock int) int {
	if v == ValueNone || !IsMateValue(v) {
		return v
	}
	if v > 0 {
		if ValueMate-v > 100-halfMoveClock {
			return ValueMateInMaxPly - 1
		}
		return v - ply
	}
	if ValueMate+v > 100-halfMoveClock {
		return ValueMatedInMaxPly + 1
	}
	return v + ply
}
