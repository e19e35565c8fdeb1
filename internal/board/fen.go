package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFEN is returned for position text that cannot be parsed or
// describes an impossible position.
var ErrInvalidFEN = errors.New("invalid FEN")

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses position text. Castling rights may use KQkq or rook file
// letters; file letters, or castling rooks off the corner files, switch the
// position to Chess960 rules.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: need at least 4 fields, got %d", ErrInvalidFEN, len(parts))
	}

	pos := &Position{
		EnPassant:     NoSquare,
		CapturedPiece: NoPiece,
		KingSquare:    [2]Square{NoSquare, NoSquare},
		castle:        &castleConfig{},
	}
	for sq := range pos.Board {
		pos.Board[sq] = NoPiece
	}
	for i := range pos.castle.rookSquare {
		pos.castle.rookSquare[i] = NoSquare
	}

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, parts[1])
	}

	if err := pos.Validate(); err != nil {
		return nil, err
	}

	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: bad en passant square: %w", ErrInvalidFEN, err)
		}
		if pos.enPassantCapturable(sq) {
			pos.EnPassant = sq
		}
	}

	fullMove := 1
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fmt.Errorf("%w: bad half-move clock %q", ErrInvalidFEN, parts[4])
		}
		pos.HalfMoveClock = hmc
	}
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil {
			return nil, fmt.Errorf("%w: bad full-move number %q", ErrInvalidFEN, parts[5])
		}
		fullMove = max(fmn, 1)
	}
	pos.GamePly = 2*(fullMove-1) + int(pos.SideToMove)

	pos.Keys = pos.ComputeHash()
	pos.updateCheckInfo()
	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pc := PieceFromChar(c)
			if pc == NoPiece {
				return fmt.Errorf("%w: bad piece character %q", ErrInvalidFEN, c)
			}
			pos.putPiece(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, rank+1, file)
		}
	}
	return nil
}

func parseCastlingRights(pos *Position, field string) error {
	if field == "-" {
		return nil
	}
	for i := 0; i < len(field); i++ {
		c := field[i]
		color := White
		if c >= 'a' && c <= 'z' {
			color = Black
		}
		rook := NewPiece(Rook, color)
		backRank := A1.Relative(color).Rank()
		ksq := pos.KingSquare[color]
		upper := c &^ 0x20

		// K and Q name the outermost rook on that side of the king.
		rsq := NoSquare
		switch {
		case upper == 'K':
			for f := 7; f > ksq.File(); f-- {
				if sq := NewSquare(f, backRank); pos.Board[sq] == rook {
					rsq = sq
					break
				}
			}
		case upper == 'Q':
			for f := 0; f < ksq.File(); f++ {
				if sq := NewSquare(f, backRank); pos.Board[sq] == rook {
					rsq = sq
					break
				}
			}
		case upper >= 'A' && upper <= 'H':
			rsq = NewSquare(int(upper-'A'), backRank)
			pos.Chess960 = true
		default:
			return fmt.Errorf("%w: bad castling character %q", ErrInvalidFEN, c)
		}

		if rsq == NoSquare || pos.Board[rsq] != rook || ksq.Rank() != backRank {
			return fmt.Errorf("%w: castling right %q has no matching king and rook", ErrInvalidFEN, c)
		}
		if ksq.File() != 4 || (rsq.File() != 0 && rsq.File() != 7) {
			pos.Chess960 = true
		}
		pos.setCastlingRight(color, rsq)
	}
	return nil
}

// enPassantCapturable reports whether the side to move has a pawn that can
// capture on sq, behind an enemy pawn that just made a double step.
func (p *Position) enPassantCapturable(sq Square) bool {
	us, them := p.SideToMove, p.SideToMove.Other()
	if sq.RelativeRank(us) != 5 {
		return false
	}
	victim := Square(int(sq) - PawnPush(us))
	origin := Square(int(sq) + PawnPush(us))
	return p.Board[victim] == NewPiece(Pawn, them) &&
		p.Board[sq] == NoPiece && p.Board[origin] == NoPiece &&
		pawnAttacks[them][sq]&p.Pieces(us, Pawn) != 0
}

// Validate checks the structural rules every position must satisfy.
func (p *Position) Validate() error {
	if p.Pieces(White, King).PopCount() != 1 || p.Pieces(Black, King).PopCount() != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	if p.Types[Pawn]&(Rank1|Rank8) != 0 {
		return fmt.Errorf("%w: pawns on the first or last rank", ErrInvalidFEN)
	}
	them := p.SideToMove.Other()
	if p.AttackersTo(p.KingSquare[them], p.AllOccupied)&p.Occupied[p.SideToMove] != 0 {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}
	return nil
}

// ToFEN returns the position text.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	if p.SideToMove == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	if p.CastlingRights == NoCastling {
		sb.WriteByte('-')
	}
	for i := 0; i < 4; i++ {
		cr := CastlingRights(1 << i)
		if p.CastlingRights&cr == 0 {
			continue
		}
		c := "KQkq"[i]
		if p.Chess960 {
			c = byte('A'+p.castle.rookSquare[cr].File()) | byte(i/2)*0x20
		}
		sb.WriteByte(c)
	}

	fmt.Fprintf(&sb, " %s %d %d", p.EnPassant, p.HalfMoveClock, 1+(p.GamePly-int(p.SideToMove))/2)
	return sb.String()
}
