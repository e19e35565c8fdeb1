// Command chessperft counts move-generation leaf nodes and checks them
// against published suites and earlier runs.
//
// Usage:
//
//	chessperft [flags] perft <depth> [fen]
//	chessperft [flags] divide <depth> [fen]
//	chessperft [flags] suite <file.epd> [max-depth]
//	chessperft [flags] ordered <depth> [fen]
//	chessperft [flags] records
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the process exit code so deferred cleanup runs first.
func realMain() int {
	var cfg config.Config
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	board.DebugChecks = cfg.Debug

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			log.Error().Err(err).Msg("could not create CPU profile")
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Error().Err(err).Msg("could not start CPU profile")
			return 1
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", cfg.CPUProfile).Msg("cpu-profiling")
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: chessperft [flags] perft|divide|suite|ordered|records ...")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, &cfg, args[0], args[1:]); err != nil {
		var reg *storage.Regression
		if errors.As(err, &reg) {
			log.Error().Str("fen", reg.FEN).Int("depth", reg.Depth).Int64("want", reg.Want).Int64("got", reg.Got).Msg("perft-regression")
		} else {
			log.Error().Err(err).Str("command", args[0]).Msg("failed")
		}
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "perft":
		return perft(cfg, args)
	case "divide":
		return divide(ctx, cfg, args)
	case "suite":
		return suite(ctx, cfg, args)
	case "ordered":
		return ordered(cfg, args)
	case "records":
		return records(cfg)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// positionArgs parses "<depth> [fen...]"; the FEN may span several args.
func positionArgs(args []string) (*board.Position, int, error) {
	if len(args) == 0 {
		return nil, 0, errors.New("missing depth")
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 1 {
		return nil, 0, fmt.Errorf("bad depth %q", args[0])
	}
	fen := board.StartFEN
	if len(args) > 1 {
		fen = strings.Join(args[1:], " ")
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, 0, err
	}
	return pos, depth, nil
}

func openStorage(cfg *config.Config) (*storage.Storage, error) {
	if cfg.DBPath != "" {
		return storage.Open(cfg.DBPath)
	}
	return storage.NewStorage()
}

func nps(nodes int64, elapsed time.Duration) int64 {
	if elapsed <= 0 {
		return 0
	}
	return int64(float64(nodes) / elapsed.Seconds())
}

func perft(cfg *config.Config, args []string) error {
	pos, depth, err := positionArgs(args)
	if err != nil {
		return err
	}

	start := time.Now()
	nodes := board.Perft(pos, depth)
	elapsed := time.Since(start)
	fmt.Printf("perft(%d) = %d\n", depth, nodes)
	log.Info().Int("depth", depth).Int64("nodes", nodes).Dur("elapsed", elapsed).Int64("nps", nps(nodes, elapsed)).Msg("perft")

	db, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.VerifyPerft(pos.ToFEN(), depth, nodes)
}

func divide(ctx context.Context, cfg *config.Config, args []string) error {
	pos, depth, err := positionArgs(args)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := board.ParallelDivide(ctx, pos, depth, cfg.Threads)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	slices.SortFunc(results, func(a, b board.DivideResult) int {
		return strings.Compare(a.Move.StringFor(cfg.Chess960), b.Move.StringFor(cfg.Chess960))
	})
	for _, r := range results {
		fmt.Printf("%-6s %-8s %d\n", r.Move.StringFor(cfg.Chess960), pos.ToSAN(r.Move), r.Nodes)
	}

	total := lo.SumBy(results, func(r board.DivideResult) int64 { return r.Nodes })
	fmt.Printf("\nmoves %d\nnodes %d\n", len(results), total)
	log.Info().Int("depth", depth).Int("threads", cfg.Threads).Dur("elapsed", elapsed).Int64("nps", nps(total, elapsed)).Msg("divide")
	return nil
}

func suite(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("missing suite file")
	}
	maxDepth := 0
	if len(args) > 1 {
		d, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad max depth %q", args[1])
		}
		maxDepth = d
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var cases []board.PerftCase
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pc, err := board.ParsePerftCase(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", args[0], lineNo, err)
		}
		cases = append(cases, pc)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	var failed int
	for _, pc := range cases {
		depths := lo.Keys(pc.Expected)
		slices.Sort(depths)
		if maxDepth > 0 {
			depths = lo.Filter(depths, func(d, _ int) bool { return d <= maxDepth })
		}

		for _, depth := range depths {
			if err := ctx.Err(); err != nil {
				return err
			}
			pos, err := board.ParseFEN(pc.FEN)
			if err != nil {
				return err
			}
			want := pc.Expected[depth]
			got := board.Perft(pos, depth)
			if got != want {
				failed++
				log.Error().Str("fen", pc.FEN).Int("depth", depth).Int64("want", want).Int64("got", got).Msg("perft-mismatch")
				continue
			}
			log.Debug().Str("fen", pc.FEN).Int("depth", depth).Int64("nodes", got).Msg("perft-ok")
			if err := db.SavePerft(storage.PerftRecord{FEN: pc.FEN, Depth: depth, Nodes: want, Source: storage.SourceSuite}); err != nil {
				return err
			}
		}
	}

	log.Info().Int("positions", len(cases)).Int("failed", failed).Msg("suite")
	if failed > 0 {
		return fmt.Errorf("%d perft counts differ", failed)
	}
	return nil
}

// ordered walks the tree through the move orderer twice, the second time
// with a warm transposition table and histories.
func ordered(cfg *config.Config, args []string) error {
	pos, depth, err := positionArgs(args)
	if err != nil {
		return err
	}

	want := board.Perft(pos, depth)
	tt := engine.NewTranspositionTable(cfg.HashMB)
	tt.Clear(cfg.Threads)
	h := engine.NewHistory(nil)

	for pass := range 2 {
		start := time.Now()
		got := engine.OrderedPerft(pos, depth, tt, h)
		log.Info().Int("pass", pass).Int64("nodes", got).Dur("elapsed", time.Since(start)).
			Int("hashfull", tt.HashFull(0)).Float64("hit-rate", tt.HitRate()).Msg("ordered-perft")
		if got != want {
			return fmt.Errorf("ordered perft(%d) = %d, want %d", depth, got, want)
		}
		tt.NewSearch()
	}
	fmt.Printf("ordered perft(%d) = %d\n", depth, want)
	return nil
}

func records(cfg *config.Config) error {
	db, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.ListPerft()
	if err != nil {
		return err
	}
	groups := lo.GroupBy(recs, func(r storage.PerftRecord) string { return r.FEN })
	fens := lo.Keys(groups)
	slices.Sort(fens)
	for _, fen := range fens {
		group := groups[fen]
		slices.SortFunc(group, func(a, b storage.PerftRecord) int { return a.Depth - b.Depth })
		fmt.Println(fen)
		for _, r := range group {
			fmt.Printf("  D%-2d %14d  %-8s %s\n", r.Depth, r.Nodes, r.Source, r.Recorded.Format(time.DateOnly))
		}
	}
	return nil
}
