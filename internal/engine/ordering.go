package engine

import (
	"math"

	"github.com/hailam/chesscore/internal/board"
)

// Move ordering weights.
const (
	promotionScoreFactor = 101 // percent of the promoted piece's value
	mvvLvaScoreFactor    = 147 // percent of the material difference
	seeDivisor           = 83  // capture score per centipawn of SEE slack

	queenThreatScore = 20000
	rookThreatScore  = 12500
	minorThreatScore = 7500

	quietSortLimitPerDepth = -3500
)

type stage uint8

const (
	stageTTMove stage = iota
	stageGenCaptures
	stagePlayGoodCaptures
	stageKiller
	stageCounter
	stageGenQuiets
	stagePlayQuiets
	stagePlayBadCaptures
	stageDone
)

// Threats holds the squares the opponent of the side to move attacks,
// grouped by the value of the cheapest attacker.
type Threats struct {
	Pawn  board.Bitboard // by pawns
	Minor board.Bitboard // by pawns and minor pieces
	Rook  board.Bitboard // by anything up to a rook
	All   board.Bitboard
}

// NewThreats computes the threat maps of the side not to move.
func NewThreats(pos *board.Position) Threats {
	them := pos.SideToMove.Other()
	var t Threats
	t.Pawn = pos.AttacksBy(them, board.Pawn)
	t.Minor = t.Pawn | pos.AttacksBy(them, board.Knight) | pos.AttacksBy(them, board.Bishop)
	t.Rook = t.Minor | pos.AttacksBy(them, board.Rook)
	t.All = t.Rook | pos.AttacksBy(them, board.Queen) | pos.AttacksBy(them, board.King)
	return t
}

// AllThreats returns every square attacked by the side not to move.
func AllThreats(pos *board.Position) board.Bitboard {
	return NewThreats(pos).All
}

// MoveOrderer yields the pseudo-legal moves of a position one at a time,
// generating each group only when the search gets to it: the cached move,
// winning captures, the killer and the counter move, quiet moves, and
// finally the captures that lost material.
type MoveOrderer struct {
	pos  *board.Position
	hist *History
	ss   *SearchStack
	ply  int

	ttMove, killer, counter board.Move

	moves    board.MoveList
	scores   [256]int
	returned int

	badCaptures board.MoveList
	returnedBad int

	stage stage
	depth int

	capturesOnly     bool
	probCut          bool
	probCutThreshold int
	skipQuiets       bool
}

// NewMoveOrderer creates an orderer for a main search node.
func NewMoveOrderer(pos *board.Position, hist *History, ss *SearchStack, ply int, ttMove board.Move, depth int) *MoveOrderer {
	mo := &MoveOrderer{
		pos:    pos,
		hist:   hist,
		ss:     ss,
		ply:    ply,
		ttMove: ttMove,
		killer: ss.At(ply).Killer,
		depth:  depth,
	}
	if ply > 0 {
		mo.counter = hist.CounterMove(ss.At(ply - 1).CurrentMove)
	}
	return mo
}

// NewQuiescenceOrderer creates an orderer that stops after the winning
// captures.
func NewQuiescenceOrderer(pos *board.Position, hist *History, ss *SearchStack, ply int, ttMove board.Move, depth int) *MoveOrderer {
	return &MoveOrderer{
		pos:          pos,
		hist:         hist,
		ss:           ss,
		ply:          ply,
		ttMove:       ttMove,
		depth:        depth,
		capturesOnly: true,
	}
}

// NewProbCutOrderer creates an orderer that only yields captures winning
// at least threshold.
func NewProbCutOrderer(pos *board.Position, hist *History, ss *SearchStack, ply int, ttMove board.Move, threshold int) *MoveOrderer {
	return &MoveOrderer{
		pos:              pos,
		hist:             hist,
		ss:               ss,
		ply:              ply,
		ttMove:           ttMove,
		capturesOnly:     true,
		probCut:          true,
		probCutThreshold: threshold,
	}
}

// SkipQuietStages drops the killer, counter and quiet stages. Captures
// deferred as losing are still returned.
func (mo *MoveOrderer) SkipQuietStages() {
	mo.skipQuiets = true
}

// NextMove returns the next move to search, or NoMove when none are left.
// Moves are pseudo-legal; the caller checks Legal before making them.
func (mo *MoveOrderer) NextMove() board.Move {
	if mo.skipQuiets && mo.stage >= stageKiller && mo.stage != stageDone {
		mo.stage = stagePlayBadCaptures
	}

	switch mo.stage {
	case stageTTMove:
		mo.stage++
		if mo.ttMove != board.NoMove && mo.pos.PseudoLegal(mo.ttMove) &&
			(!mo.capturesOnly || mo.pos.IsCaptureStage(mo.ttMove)) {
			return mo.ttMove
		}
		mo.ttMove = board.NoMove
		fallthrough

	case stageGenCaptures:
		mo.pos.GenerateMoves(&mo.moves, board.GenCaptures)
		mo.scoreCaptures()
		mo.sortMoves(math.MinInt)
		mo.stage++
		fallthrough

	case stagePlayGoodCaptures:
		for mo.returned < mo.moves.Len() {
			m := mo.moves.Get(mo.returned)
			score := mo.scores[mo.returned]
			mo.returned++

			threshold := -score / seeDivisor
			if mo.probCut {
				threshold = mo.probCutThreshold
			}
			if !SEE(mo.pos, m, threshold) {
				mo.badCaptures.Add(m)
				continue
			}
			return m
		}

		if mo.capturesOnly {
			mo.stage = stageDone
			return board.NoMove
		}
		mo.stage++
		fallthrough

	case stageKiller:
		if mo.skipQuiets {
			mo.stage = stagePlayBadCaptures
			return mo.NextMove()
		}
		mo.stage++
		if mo.isRefutation(mo.killer, mo.ttMove) {
			return mo.killer
		}
		mo.killer = board.NoMove
		fallthrough

	case stageCounter:
		mo.stage++
		if mo.counter != mo.killer && mo.isRefutation(mo.counter, mo.ttMove) {
			return mo.counter
		}
		mo.counter = board.NoMove
		fallthrough

	case stageGenQuiets:
		mo.moves.Clear()
		mo.returned = 0
		mo.pos.GenerateMoves(&mo.moves, board.GenQuiets)
		mo.scoreQuiets()
		mo.sortMoves(quietSortLimitPerDepth * mo.depth)
		mo.stage++
		fallthrough

	case stagePlayQuiets:
		if mo.returned < mo.moves.Len() {
			m := mo.moves.Get(mo.returned)
			mo.returned++
			return m
		}
		mo.stage++
		fallthrough

	case stagePlayBadCaptures:
		if mo.returnedBad < mo.badCaptures.Len() {
			m := mo.badCaptures.Get(mo.returnedBad)
			mo.returnedBad++
			return m
		}
		mo.stage = stageDone
	}

	return board.NoMove
}

// isRefutation reports whether a remembered quiet move can be played
// before the quiet stage.
func (mo *MoveOrderer) isRefutation(m, ttMove board.Move) bool {
	return m != board.NoMove && m != ttMove &&
		!mo.pos.IsCaptureStage(m) && mo.pos.PseudoLegal(m)
}

// filter drops the moves already returned by an earlier stage.
func (mo *MoveOrderer) filter(returned ...board.Move) {
	mo.moves.Filter(func(m board.Move) bool {
		for _, r := range returned {
			if m == r {
				return false
			}
		}
		return true
	})
}

func (mo *MoveOrderer) scoreCaptures() {
	if mo.ttMove != board.NoMove {
		mo.filter(mo.ttMove)
	}

	pos := mo.pos
	for i, m := range mo.moves.Slice() {
		score := mo.hist.CaptureScore(pos, m)
		switch {
		case m.IsEnPassant():
		case m.IsPromotion():
			score += board.PieceValue[m.Promotion()] * promotionScoreFactor / 100
		default:
			gain := board.PieceValue[pos.Board[m.To()].Type()] - board.PieceValue[pos.Board[m.From()].Type()]
			score += gain * mvvLvaScoreFactor / 100
		}
		mo.scores[i] = score
	}
}

func (mo *MoveOrderer) scoreQuiets() {
	mo.filter(mo.ttMove, mo.killer, mo.counter)

	pos := mo.pos
	threats := NewThreats(pos)
	for i, m := range mo.moves.Slice() {
		from, to := board.SquareBB(m.From()), board.SquareBB(m.To())

		var danger board.Bitboard
		var bonus int
		switch pos.MovedPiece(m).Type() {
		case board.Queen:
			danger, bonus = threats.Rook, queenThreatScore
		case board.Rook:
			danger, bonus = threats.Minor, rookThreatScore
		case board.Knight, board.Bishop:
			danger, bonus = threats.Pawn, minorThreatScore
		}

		threatScore := 0
		if from&danger != 0 {
			threatScore += bonus
		}
		if to&danger != 0 {
			threatScore -= bonus
		}

		mo.scores[i] = mo.hist.QuietScore(pos, mo.ss, mo.ply, threats.All, m) + threatScore
	}
}

// sortMoves insertion-sorts the unreturned moves by descending score.
// Moves scoring below limit are left behind the sorted ones, unordered.
func (mo *MoveOrderer) sortMoves(limit int) {
	moves := mo.moves.Slice()
	for i := mo.returned + 1; i < len(moves); i++ {
		if mo.scores[i] < limit {
			continue
		}
		m, score := moves[i], mo.scores[i]
		j := i - 1
		for j >= mo.returned && mo.scores[j] < score {
			moves[j+1] = moves[j]
			mo.scores[j+1] = mo.scores[j]
			j--
		}
		moves[j+1] = m
		mo.scores[j+1] = score
	}
}
