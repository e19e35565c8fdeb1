package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	saved := os.Args
	os.Args = append([]string{"chessperft"}, args...)
	t.Cleanup(func() { os.Args = saved })
}

func TestFailingCommandFlushesProfile(t *testing.T) {
	is := is.New(t)
	profile := filepath.Join(t.TempDir(), "cpu.prof")
	withArgs(t, "--cpuprofile", profile, "no-such-command")

	is.Equal(realMain(), 1)

	info, err := os.Stat(profile)
	is.NoErr(err)
	is.True(info.Size() > 0) // profile stopped and written before exit
}

func TestUsageWithoutCommand(t *testing.T) {
	is := is.New(t)
	withArgs(t)
	is.Equal(realMain(), 2)
}

func TestSuiteRejectsNonPositiveDepth(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	cfg := config.Config{DBPath: filepath.Join(dir, "db"), Threads: 1}

	bad := filepath.Join(dir, "bad.epd")
	is.NoErr(os.WriteFile(bad, []byte(board.StartFEN+" ;D1 20 ;D-1 5\n"), 0o644))
	is.True(run(context.Background(), &cfg, "suite", []string{bad}) != nil)

	good := filepath.Join(dir, "good.epd")
	is.NoErr(os.WriteFile(good, []byte(board.StartFEN+" ;D1 20 ;D2 400\n"), 0o644))
	is.NoErr(run(context.Background(), &cfg, "suite", []string{good}))
}
