package board

import (
	"context"
	"testing"
)

const (
	kiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	endgameFEN  = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	promoFEN    = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"
	bugFEN      = "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"
	middleFEN   = "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10"
	frc1FEN     = "bqnb1rkr/pp3ppp/3ppn2/2p5/5P2/P2P4/NPP1P1PP/BQ1BNRKR w HFhf - 2 9"
	frc2FEN     = "2nnrbkr/p1qppppp/8/1ppb4/6PP/3PP3/PPP2P2/BQNNRBKR w HEhe - 1 9"
)

func TestPerft(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		expected []int64 // indexed by depth-1
	}{
		{"start", StartFEN, []int64{20, 400, 8902, 197281}},
		{"kiwipete", kiwipeteFEN, []int64{48, 2039, 97862}},
		{"endgame", endgameFEN, []int64{14, 191, 2812, 43238, 674624}},
		{"promotions", promoFEN, []int64{6, 264, 9467}},
		{"bug-catcher", bugFEN, []int64{44, 1486, 62379}},
		{"middlegame", middleFEN, []int64{46, 2079, 89890}},
		{"chess960-1", frc1FEN, []int64{21, 528, 12189}},
		{"chess960-2", frc2FEN, []int64{21, 807, 18002}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("Failed to parse FEN: %v", err)
			}
			for i, want := range tc.expected {
				if got := Perft(pos, i+1); got != want {
					t.Errorf("perft(%d) = %d, want %d", i+1, got, want)
				}
			}
			if pos.ToFEN() != tc.fen {
				t.Errorf("position changed by perft: %s", pos.ToFEN())
			}
		})
	}
}

func TestPerftDeep(t *testing.T) {
	if testing.Short() {
		t.Skip("deep perft skipped in short mode")
	}
	pos := NewPosition()
	if got := Perft(pos, 5); got != 4865609 {
		t.Errorf("perft(5) = %d, want 4865609", got)
	}
	kiwi, _ := ParseFEN(kiwipeteFEN)
	if got := Perft(kiwi, 4); got != 4085603 {
		t.Errorf("kiwipete perft(4) = %d, want 4085603", got)
	}
}

func TestParallelDivideMatchesPerft(t *testing.T) {
	pos, _ := ParseFEN(kiwipeteFEN)
	results, err := ParallelDivide(context.Background(), pos, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	var total int64
	for _, r := range results {
		total += r.Nodes
	}
	if total != 97862 {
		t.Errorf("parallel divide total = %d, want 97862", total)
	}
	if len(results) != 48 {
		t.Errorf("got %d root moves, want 48", len(results))
	}
}

func TestParsePerftCase(t *testing.T) {
	pc, err := ParsePerftCase(StartFEN + " ;D1 20 ;D2 400")
	if err != nil {
		t.Fatal(err)
	}
	if pc.FEN != StartFEN || pc.Expected[1] != 20 || pc.Expected[2] != 400 {
		t.Errorf("unexpected case %+v", pc)
	}
	for _, field := range []string{" ;X1 20", " ;D-1 5", " ;D0 1", " ;D1 20 ;D-3 1"} {
		if _, err := ParsePerftCase(StartFEN + field); err == nil {
			t.Errorf("expected error for %q", field)
		}
	}
}

func TestPerftNonPositiveDepth(t *testing.T) {
	pos := NewPosition()
	if n := Perft(pos, 0); n != 1 {
		t.Errorf("Perft depth 0 = %d, want 1", n)
	}
	for _, depth := range []int{-1, -5} {
		if n := Perft(pos, depth); n != 0 {
			t.Errorf("Perft depth %d = %d, want 0", depth, n)
		}
	}
	if r := Divide(pos, -1); r != nil {
		t.Errorf("Divide depth -1 = %v, want nil", r)
	}
}
