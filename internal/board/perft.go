package board

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(p *Position, depth int) int64 {
	if depth <= 0 {
		if depth < 0 {
			return 0
		}
		return 1
	}
	var ml MoveList
	p.generateLegal(&ml)
	if depth == 1 {
		return int64(ml.Len())
	}

	var nodes int64
	for _, m := range ml.Slice() {
		undo := p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove(undo)
	}
	return nodes
}

// DivideResult is the leaf count below one root move.
type DivideResult struct {
	Move  Move
	Nodes int64
}

// Divide returns the perft count below every legal root move.
func Divide(p *Position, depth int) []DivideResult {
	if depth < 1 {
		return nil
	}
	moves := p.GenerateLegalMoves().Slice()
	results := make([]DivideResult, len(moves))
	for i, m := range moves {
		undo := p.MakeMove(m)
		results[i] = DivideResult{Move: m, Nodes: Perft(p, depth-1)}
		p.UnmakeMove(undo)
	}
	return results
}

// ParallelDivide is Divide with the root moves spread over at most workers
// goroutines, each working on its own copy of the position.
func ParallelDivide(ctx context.Context, p *Position, depth, workers int) ([]DivideResult, error) {
	if depth < 1 {
		return nil, nil
	}
	moves := p.GenerateLegalMoves().Slice()
	results := make([]DivideResult, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := p.Copy()
			child.ApplyMove(m)
			results[i] = DivideResult{Move: m, Nodes: Perft(child, depth-1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PerftCase is one line of a perft suite: a position and the expected leaf
// counts by depth.
type PerftCase struct {
	FEN      string
	Expected map[int]int64
}

// ParsePerftCase parses an EPD perft line such as
// "<fen> ;D1 20 ;D2 400".
func ParsePerftCase(line string) (PerftCase, error) {
	fields := strings.Split(line, ";")
	pc := PerftCase{FEN: strings.TrimSpace(fields[0]), Expected: make(map[int]int64)}
	if _, err := ParseFEN(pc.FEN); err != nil {
		return PerftCase{}, err
	}
	for _, f := range fields[1:] {
		parts := strings.Fields(f)
		if len(parts) != 2 || len(parts[0]) < 2 || (parts[0][0] != 'D' && parts[0][0] != 'd') {
			return PerftCase{}, fmt.Errorf("bad perft field %q", f)
		}
		depth, err := strconv.Atoi(parts[0][1:])
		if err != nil {
			return PerftCase{}, fmt.Errorf("bad perft depth %q: %w", parts[0], err)
		}
		if depth < 1 {
			return PerftCase{}, fmt.Errorf("bad perft depth %q: must be at least 1", parts[0])
		}
		nodes, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return PerftCase{}, fmt.Errorf("bad perft count %q: %w", parts[1], err)
		}
		pc.Expected[depth] = nodes
	}
	return pc, nil
}
