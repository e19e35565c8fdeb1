package board

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// DebugChecks enables contract verification on every mutation: the mover
// must have a king, the move must be pseudo-legal, and all incremental
// state must match a full recomputation afterwards. Violations are logged
// and panic. It is meant for tests and debug builds.
var DebugChecks = false

// UndoInfo is the snapshot MakeMove saves so UnmakeMove can restore the
// position exactly.
type UndoInfo struct {
	prev Position
}

// MakeMove applies m and returns what is needed to take it back.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{prev: *p}
	p.ApplyMove(m)
	return undo
}

// UnmakeMove restores the position saved by MakeMove.
func (p *Position) UnmakeMove(undo UndoInfo) {
	*p = undo.prev
}

// ApplyMove plays m in place. m must be pseudo-legal and legal for the
// current position.
func (p *Position) ApplyMove(m Move) {
	if DebugChecks {
		p.verifyMoveContract(m)
	}

	us, them := p.SideToMove, p.SideToMove.Other()
	from, to := m.From(), m.To()
	pc := p.Board[from]
	captured := p.CapturedBy(m)

	p.Hash ^= zobristSideToMove
	p.GamePly++
	p.HalfMoveClock++

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}

	if m.IsCastling() {
		kto, rto := castlingTargets(us, to > from)
		rook := p.removePiece(to)
		p.removePiece(from)
		p.putPiece(pc, kto)
		p.putPiece(rook, rto)
		p.Keys.toggle(pc, from)
		p.Keys.toggle(pc, kto)
		p.Keys.toggle(rook, to)
		p.Keys.toggle(rook, rto)
	} else {
		if captured != NoPiece {
			capsq := to
			if m.IsEnPassant() {
				capsq = Square(int(to) - PawnPush(us))
			}
			p.removePiece(capsq)
			p.Keys.toggle(captured, capsq)
			p.HalfMoveClock = 0
		}

		p.movePiece(from, to)
		p.Keys.toggle(pc, from)
		p.Keys.toggle(pc, to)

		if pc.Type() == Pawn {
			p.HalfMoveClock = 0
			if m.IsPromotion() {
				promo := NewPiece(m.Promotion(), us)
				p.removePiece(to)
				p.putPiece(promo, to)
				p.Keys.toggle(pc, to)
				p.Keys.toggle(promo, to)
			} else if int(to)^int(from) == 16 {
				ep := Square(int(from) + PawnPush(us))
				if pawnAttacks[us][ep]&p.Pieces(them, Pawn) != 0 {
					p.EnPassant = ep
					p.Hash ^= zobristEnPassant[ep.File()]
				}
			}
		}
	}

	if lost := p.castle.rightsMask[from] | p.castle.rightsMask[to]; p.CastlingRights&lost != 0 {
		p.Hash ^= zobristCastling[p.CastlingRights]
		p.CastlingRights &^= lost
		p.Hash ^= zobristCastling[p.CastlingRights]
	}

	p.CapturedPiece = captured
	p.SideToMove = them
	p.updateCheckInfo()

	if DebugChecks {
		p.verifyConsistency(m)
	}
}

// HashAfter predicts the full position hash after m without changing the
// position. It matches the hash ApplyMove produces exactly.
func (p *Position) HashAfter(m Move) uint64 {
	us, them := p.SideToMove, p.SideToMove.Other()
	from, to := m.From(), m.To()
	pc := p.Board[from]

	key := p.Hash ^ zobristSideToMove
	if p.EnPassant != NoSquare {
		key ^= zobristEnPassant[p.EnPassant.File()]
	}

	switch {
	case m.IsCastling():
		kto, rto := castlingTargets(us, to > from)
		rook := p.Board[to]
		key ^= zobristPiece[pc][from] ^ zobristPiece[pc][kto] ^ zobristPiece[rook][to] ^ zobristPiece[rook][rto]
	case m.IsEnPassant():
		capsq := Square(int(to) - PawnPush(us))
		key ^= zobristPiece[NewPiece(Pawn, them)][capsq] ^ zobristPiece[pc][from] ^ zobristPiece[pc][to]
	default:
		if captured := p.Board[to]; captured != NoPiece {
			key ^= zobristPiece[captured][to]
		}
		key ^= zobristPiece[pc][from]
		if m.IsPromotion() {
			key ^= zobristPiece[NewPiece(m.Promotion(), us)][to]
		} else {
			key ^= zobristPiece[pc][to]
		}
		if pc.Type() == Pawn && int(to)^int(from) == 16 {
			ep := Square(int(from) + PawnPush(us))
			if pawnAttacks[us][ep]&p.Pieces(them, Pawn) != 0 {
				key ^= zobristEnPassant[ep.File()]
			}
		}
	}

	if rights := p.CastlingRights &^ (p.castle.rightsMask[from] | p.castle.rightsMask[to]); rights != p.CastlingRights {
		key ^= zobristCastling[p.CastlingRights] ^ zobristCastling[rights]
	}
	return key
}

func (p *Position) verifyMoveContract(m Move) {
	if p.Pieces(p.SideToMove, King) == 0 {
		log.Error().Str("fen", p.ToFEN()).Msg("mutating-position-without-king")
		panic("board: side to move has no king")
	}
	if !p.PseudoLegal(m) {
		log.Error().Str("fen", p.ToFEN()).Str("move", m.StringFor(p.Chess960)).Msg("move-not-pseudo-legal")
		panic(fmt.Sprintf("board: move %s is not pseudo-legal", m.StringFor(p.Chess960)))
	}
}

func (p *Position) verifyConsistency(m Move) {
	if err := p.checkConsistency(); err != nil {
		log.Error().Err(err).Str("fen", p.ToFEN()).Str("move", m.StringFor(p.Chess960)).Msg("position-inconsistent")
		panic(err)
	}
}

// checkConsistency compares every incrementally maintained field against a
// recomputation from the per-square board.
func (p *Position) checkConsistency() error {
	var types [6]Bitboard
	var occupied [2]Bitboard
	for sq := A1; sq <= H8; sq++ {
		if pc := p.Board[sq]; pc != NoPiece {
			types[pc.Type()] |= SquareBB(sq)
			occupied[pc.Color()] |= SquareBB(sq)
		}
	}
	if types != p.Types || occupied != p.Occupied || p.AllOccupied != occupied[White]|occupied[Black] {
		return fmt.Errorf("bitboards disagree with board array")
	}
	if keys := p.ComputeHash(); keys != p.Keys {
		return fmt.Errorf("incremental keys %+v, recomputed %+v", p.Keys, keys)
	}
	fresh := *p
	fresh.updateCheckInfo()
	if fresh.Checkers != p.Checkers || fresh.Blockers != p.Blockers || fresh.Pinners != p.Pinners {
		return fmt.Errorf("check information is stale")
	}
	return nil
}
