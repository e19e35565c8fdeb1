package config

import (
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestLoadDefaults(t *testing.T) {
	is := is.New(t)
	var c Config
	rest, err := c.Load(nil)
	is.NoErr(err)
	is.Equal(len(rest), 0)
	is.Equal(c.HashMB, 16)
	is.True(c.Threads >= 1)
	is.Equal(c.DBPath, "")
	is.Equal(c.Level(), zerolog.InfoLevel)
	is.True(!c.Debug)
	is.Equal(c.CPUProfile, "")
}

func TestLoadFlagsAndArgs(t *testing.T) {
	is := is.New(t)
	var c Config
	rest, err := c.Load([]string{"--hash", "64", "--threads=3", "--debug", "--log-level", "debug", "perft", "5"})
	is.NoErr(err)
	is.Equal(rest, []string{"perft", "5"})
	is.Equal(c.HashMB, 64)
	is.Equal(c.Threads, 3)
	is.True(c.Debug)
	is.Equal(c.Level(), zerolog.DebugLevel)
}

func TestLoadEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("CHESSCORE_HASH", "128")
	t.Setenv("CHESSCORE_DB_PATH", "/tmp/perft")
	t.Setenv("CHESSCORE_CHESS960", "true")

	var c Config
	_, err := c.Load(nil)
	is.NoErr(err)
	is.Equal(c.HashMB, 128)
	is.Equal(c.DBPath, "/tmp/perft")
	is.True(c.Chess960)

	// Flags win over the environment.
	_, err = c.Load([]string{"--hash=32"})
	is.NoErr(err)
	is.Equal(c.HashMB, 32)
}

func TestLoadRejectsUnknownFlags(t *testing.T) {
	is := is.New(t)
	var c Config
	_, err := c.Load([]string{"--nope"})
	is.True(err != nil)
}

func TestLevelFallback(t *testing.T) {
	is := is.New(t)
	c := Config{LogLevel: "loud"}
	is.Equal(c.Level(), zerolog.InfoLevel)
}
