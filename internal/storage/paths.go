// Package storage keeps perft reference results in a BadgerDB database so
// that move generator regressions show up as changed node counts.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

const appName = "chesscore"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chesscore/
// - Linux: ~/.local/share/chesscore/
// - Windows: %APPDATA%/chesscore/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Linux and other Unix-like: $XDG_DATA_HOME or ~/.local/share/
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDatabaseDir returns the directory for storing the perft database.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(dataDir, "perft")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}

	log.Debug().Str("dir", dbDir).Msg("database-dir")
	return dbDir, nil
}
