// Package config loads the settings shared by the command-line tools from
// flags and CHESSCORE_* environment variables.
package config

import (
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	HashMB   int
	Threads  int
	DBPath   string
	LogLevel string
	Debug    bool
	Chess960 bool

	CPUProfile string
}

// Load parses args, falling back to the environment and then to defaults.
// It returns the remaining positional arguments.
func (c *Config) Load(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("chesscore", pflag.ContinueOnError)
	fs.Int("hash", 16, "transposition table size in MB")
	fs.Int("threads", runtime.NumCPU(), "worker goroutines for parallel perft and table clearing")
	fs.String("db-path", "", "perft database directory; empty uses the platform data directory")
	fs.String("log-level", "info", "trace, debug, info, warn or error")
	fs.Bool("debug", false, "verify position consistency after every move")
	fs.Bool("chess960", false, "print castling moves as king takes rook")
	fs.String("cpuprofile", "", "write cpu profile to file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("chesscore")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	c.HashMB = v.GetInt("hash")
	c.Threads = max(v.GetInt("threads"), 1)
	c.DBPath = v.GetString("db-path")
	c.LogLevel = v.GetString("log-level")
	c.Debug = v.GetBool("debug")
	c.Chess960 = v.GetBool("chess960")
	c.CPUProfile = v.GetString("cpuprofile")
	return fs.Args(), nil
}

// Level returns the configured log level, or info when it does not parse.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
