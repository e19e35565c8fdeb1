package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a set of the four castling options.
type CastlingRights uint8

const (
	WhiteOO  CastlingRights = 1 << iota // K
	WhiteOOO                            // Q
	BlackOO                             // k
	BlackOOO                            // q

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteOO | WhiteOOO | BlackOO | BlackOOO
)

// MoreThanOne reports whether more than one right is present.
func (cr CastlingRights) MoreThanOne() bool {
	return cr&(cr-1) != 0
}

// Of returns the rights held by color c.
func (cr CastlingRights) Of(c Color) CastlingRights {
	if c == White {
		return cr & (WhiteOO | WhiteOOO)
	}
	return cr & (BlackOO | BlackOOO)
}

// castlingRight returns the single right for c castling toward the h-file
// (kingSide) or the a-file.
func castlingRight(c Color, kingSide bool) CastlingRights {
	cr := WhiteOO
	if !kingSide {
		cr = WhiteOOO
	}
	if c == Black {
		cr <<= 2
	}
	return cr
}

// castleConfig describes where castling rooks start and which squares
// must be empty. It is fixed when the position is parsed and shared,
// read-only, by every copy of the position.
type castleConfig struct {
	rookSquare [16]Square
	path       [16]Bitboard
	rightsMask [64]CastlingRights
}

// Position is a complete chess position with incrementally maintained
// hashes and check information for the side to move.
type Position struct {
	Board       [64]Piece
	Types       [6]Bitboard // by piece type, both colors
	Occupied    [2]Bitboard // by color
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // set only when an en passant capture is available
	HalfMoveClock  int    // plies since the last capture or pawn move
	GamePly        int
	Chess960       bool

	Keys

	KingSquare [2]Square

	// Check information, recomputed after every mutation.
	Checkers     Bitboard
	Blockers     [2]Bitboard // pieces of either color shielding c's king from a slider
	Pinners      [2]Bitboard // c's sliders pinning a piece to the enemy king
	CheckSquares [6]Bitboard // squares from which the mover's piece type gives check

	CapturedPiece Piece // piece removed by the last move

	castle *castleConfig
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	c := *p
	return &c
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Board[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq] == NoPiece
}

// Pieces returns the bitboard of pieces of type pt and color c.
func (p *Position) Pieces(c Color, pt PieceType) Bitboard {
	return p.Occupied[c] & p.Types[pt]
}

// PiecesOf2 returns the union of two piece types for color c.
func (p *Position) PiecesOf2(c Color, pt1, pt2 PieceType) Bitboard {
	return p.Occupied[c] & (p.Types[pt1] | p.Types[pt2])
}

// MovedPiece returns the piece that m moves.
func (p *Position) MovedPiece(m Move) Piece {
	return p.Board[m.From()]
}

// IsCapture reports whether m removes an enemy piece.
func (p *Position) IsCapture(m Move) bool {
	return (p.Board[m.To()] != NoPiece && !m.IsCastling()) || m.IsEnPassant()
}

// IsCaptureStage reports whether m belongs to the capture stage of move
// ordering: captures and queen promotions.
func (p *Position) IsCaptureStage(m Move) bool {
	return p.IsCapture(m) || (m.IsPromotion() && m.Promotion() == Queen)
}

// CapturedBy returns the piece m would capture, or NoPiece.
func (p *Position) CapturedBy(m Move) Piece {
	switch {
	case m.IsEnPassant():
		return NewPiece(Pawn, p.SideToMove.Other())
	case m.IsCastling():
		return NoPiece
	}
	return p.Board[m.To()]
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

// CastlingRookSquare returns the starting square of the rook for a single
// castling right, or NoSquare if the position never had one.
func (p *Position) CastlingRookSquare(cr CastlingRights) Square {
	return p.castle.rookSquare[cr]
}

// CastlingImpeded reports whether any square the king or rook must cross
// for the castling right cr is occupied.
func (p *Position) CastlingImpeded(cr CastlingRights) bool {
	return p.AllOccupied&p.castle.path[cr] != 0
}

func (p *Position) putPiece(pc Piece, sq Square) {
	bb := SquareBB(sq)
	p.Board[sq] = pc
	p.Types[pc.Type()] |= bb
	p.Occupied[pc.Color()] |= bb
	p.AllOccupied |= bb
	if pc.Type() == King {
		p.KingSquare[pc.Color()] = sq
	}
}

func (p *Position) removePiece(sq Square) Piece {
	pc := p.Board[sq]
	bb := SquareBB(sq)
	p.Types[pc.Type()] &^= bb
	p.Occupied[pc.Color()] &^= bb
	p.AllOccupied &^= bb
	p.Board[sq] = NoPiece
	return pc
}

func (p *Position) movePiece(from, to Square) {
	pc := p.Board[from]
	fromTo := SquareBB(from) | SquareBB(to)
	p.Types[pc.Type()] ^= fromTo
	p.Occupied[pc.Color()] ^= fromTo
	p.AllOccupied ^= fromTo
	p.Board[from] = NoPiece
	p.Board[to] = pc
	if pc.Type() == King {
		p.KingSquare[pc.Color()] = to
	}
}

// setCastlingRight records that the king of c on kfrom may castle with the
// rook on rfrom.
func (p *Position) setCastlingRight(c Color, rfrom Square) {
	kfrom := p.KingSquare[c]
	cr := castlingRight(c, kfrom < rfrom)

	p.CastlingRights |= cr
	p.castle.rightsMask[kfrom] |= cr
	p.castle.rightsMask[rfrom] |= cr
	p.castle.rookSquare[cr] = rfrom

	kto, rto := castlingTargets(c, kfrom < rfrom)
	p.castle.path[cr] = (Between(rfrom, rto) | Between(kfrom, kto) | SquareBB(rto) | SquareBB(kto)) &^
		(SquareBB(kfrom) | SquareBB(rfrom))
}

// castlingTargets returns the destination squares of king and rook.
func castlingTargets(c Color, kingSide bool) (kto, rto Square) {
	if kingSide {
		return G1.Relative(c), F1.Relative(c)
	}
	return C1.Relative(c), D1.Relative(c)
}

// AttackersTo returns every piece of either color attacking sq given the
// occupancy.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	return (pawnAttacks[Black][sq] & p.Pieces(White, Pawn)) |
		(pawnAttacks[White][sq] & p.Pieces(Black, Pawn)) |
		(knightAttacks[sq] & p.Types[Knight]) |
		(kingAttacks[sq] & p.Types[King]) |
		(RookAttacks(sq, occupied) & (p.Types[Rook] | p.Types[Queen])) |
		(BishopAttacks(sq, occupied) & (p.Types[Bishop] | p.Types[Queen]))
}

// IsSquareAttacked returns true if sq is attacked by color c.
func (p *Position) IsSquareAttacked(sq Square, c Color) bool {
	return p.AttackersTo(sq, p.AllOccupied)&p.Occupied[c] != 0
}

// AttacksBy returns the union of squares attacked by c's pieces of type pt.
func (p *Position) AttacksBy(c Color, pt PieceType) Bitboard {
	if pt == Pawn {
		return p.Pieces(c, Pawn).PawnAttacksBB(c)
	}
	var attacks Bitboard
	for b := p.Pieces(c, pt); b != 0; {
		attacks |= Attacks(pt, b.PopLSB(), p.AllOccupied)
	}
	return attacks
}

// updateCheckInfo recomputes checkers, blockers, pinners and check squares
// from scratch for the current position.
func (p *Position) updateCheckInfo() {
	us, them := p.SideToMove, p.SideToMove.Other()

	p.updateSliderBlockers(White)
	p.updateSliderBlockers(Black)

	p.Checkers = Empty
	if p.Pieces(us, King) != 0 {
		p.Checkers = p.AttackersTo(p.KingSquare[us], p.AllOccupied) & p.Occupied[them]
	}

	p.CheckSquares = [6]Bitboard{}
	if p.Pieces(them, King) == 0 {
		return
	}
	ksq := p.KingSquare[them]
	p.CheckSquares[Pawn] = pawnAttacks[them][ksq]
	p.CheckSquares[Knight] = knightAttacks[ksq]
	p.CheckSquares[Bishop] = BishopAttacks(ksq, p.AllOccupied)
	p.CheckSquares[Rook] = RookAttacks(ksq, p.AllOccupied)
	p.CheckSquares[Queen] = p.CheckSquares[Bishop] | p.CheckSquares[Rook]
}

// updateSliderBlockers finds the pieces that shield c's king from enemy
// sliders, and the enemy sliders that pin one of c's pieces.
func (p *Position) updateSliderBlockers(c Color) {
	p.Blockers[c] = Empty
	p.Pinners[c.Other()] = Empty
	if p.Pieces(c, King) == 0 {
		return
	}
	ksq := p.KingSquare[c]

	snipers := ((RookAttacks(ksq, Empty) & (p.Types[Rook] | p.Types[Queen])) |
		(BishopAttacks(ksq, Empty) & (p.Types[Bishop] | p.Types[Queen]))) & p.Occupied[c.Other()]
	occupancy := p.AllOccupied ^ snipers

	for snipers != 0 {
		sniper := snipers.PopLSB()
		b := Between(ksq, sniper) & occupancy
		if b != 0 && !b.MoreThanOne() {
			p.Blockers[c] |= b
			if b&p.Occupied[c] != 0 {
				p.Pinners[c.Other()] |= SquareBB(sniper)
			}
		}
	}
}

// NullUndo holds what MakeNullMove changes.
type NullUndo struct {
	keys          Keys
	enPassant     Square
	halfMoveClock int
	checkers      Bitboard
	blockers      [2]Bitboard
	pinners       [2]Bitboard
	checkSquares  [6]Bitboard
}

// MakeNullMove passes the turn without moving. The side to move must not
// be in check.
func (p *Position) MakeNullMove() NullUndo {
	undo := NullUndo{
		keys:          p.Keys,
		enPassant:     p.EnPassant,
		halfMoveClock: p.HalfMoveClock,
		checkers:      p.Checkers,
		blockers:      p.Blockers,
		pinners:       p.Pinners,
		checkSquares:  p.CheckSquares,
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.Hash ^= zobristSideToMove
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Other()
	p.updateCheckInfo()
	return undo
}

// UnmakeNullMove restores the state saved by MakeNullMove.
func (p *Position) UnmakeNullMove(undo NullUndo) {
	p.SideToMove = p.SideToMove.Other()
	p.Keys = undo.keys
	p.EnPassant = undo.enPassant
	p.HalfMoveClock = undo.halfMoveClock
	p.Checkers = undo.checkers
	p.Blockers = undo.blockers
	p.Pinners = undo.pinners
	p.CheckSquares = undo.checkSquares
}

// HasNonPawnMaterial reports whether c has any piece besides pawns and king.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	return p.Occupied[c]&^(p.Types[Pawn]|p.Types[King]) != 0
}

// IsInsufficientMaterial reports whether neither side can possibly mate:
// bare kings, a single minor piece, or bishops all on one square color.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Types[Pawn]|p.Types[Rook]|p.Types[Queen] != 0 {
		return false
	}
	minors := p.Types[Knight] | p.Types[Bishop]
	if minors.PopCount() <= 1 {
		return true
	}
	const light Bitboard = 0x55AA55AA55AA55AA
	if p.Types[Knight] == 0 {
		return p.Types[Bishop]&light == 0 || p.Types[Bishop]&^light == 0
	}
	return false
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(pc.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\n", p.ToFEN())
	fmt.Fprintf(&sb, "Key: %016X\n", p.Hash)
	fmt.Fprintf(&sb, "Checkers: %v\n", p.Checkers.Squares())
	return sb.String()
}
