package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no record exists for a position and depth.
var ErrNotFound = errors.New("storage: record not found")

const perftPrefix = "perft:"

// Record sources.
const (
	SourceSuite    = "suite"    // published reference value
	SourceMeasured = "measured" // first value computed locally
)

// PerftRecord is the node count of a position searched to a fixed depth.
type PerftRecord struct {
	FEN      string    `json:"fen"`
	Depth    int       `json:"depth"`
	Nodes    int64     `json:"nodes"`
	Source   string    `json:"source"`
	Recorded time.Time `json:"recorded"`
}

// Regression reports a node count that differs from the stored one.
type Regression struct {
	FEN   string
	Depth int
	Want  int64
	Got   int64
}

func (r *Regression) Error() string {
	return fmt.Sprintf("perft regression at depth %d of %q: want %d nodes, got %d", r.Depth, r.FEN, r.Want, r.Got)
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens the database in dir. An empty dir keeps it in memory.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open perft database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// normalizeFEN collapses whitespace so equivalent texts share a key.
func normalizeFEN(fen string) string {
	return strings.Join(strings.Fields(fen), " ")
}

// perftKey is the prefix, the position's hash and the depth.
func perftKey(fen string, depth int) []byte {
	key := make([]byte, 0, len(perftPrefix)+9)
	key = append(key, perftPrefix...)
	key = binary.BigEndian.AppendUint64(key, xxhash.Sum64String(fen))
	return append(key, byte(depth))
}

// SavePerft stores a record, replacing any earlier one for the same
// position and depth.
func (s *Storage) SavePerft(rec PerftRecord) error {
	rec.FEN = normalizeFEN(rec.FEN)
	if rec.Recorded.IsZero() {
		rec.Recorded = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(perftKey(rec.FEN, rec.Depth), data)
	})
}

// LoadPerft returns the record for a position and depth, or ErrNotFound.
func (s *Storage) LoadPerft(fen string, depth int) (PerftRecord, error) {
	fen = normalizeFEN(fen)
	var rec PerftRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(perftKey(fen, depth))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return PerftRecord{}, err
	}

	// Different positions with the same hash.
	if rec.FEN != fen {
		return PerftRecord{}, ErrNotFound
	}
	return rec, nil
}

// VerifyPerft compares a computed node count with the stored one. A
// position seen for the first time is recorded and passes; a mismatch
// returns a *Regression.
func (s *Storage) VerifyPerft(fen string, depth int, nodes int64) error {
	rec, err := s.LoadPerft(fen, depth)
	if errors.Is(err, ErrNotFound) {
		log.Debug().Str("fen", fen).Int("depth", depth).Int64("nodes", nodes).Msg("perft-recorded")
		return s.SavePerft(PerftRecord{FEN: fen, Depth: depth, Nodes: nodes, Source: SourceMeasured})
	}
	if err != nil {
		return err
	}

	if rec.Nodes != nodes {
		return &Regression{FEN: rec.FEN, Depth: depth, Want: rec.Nodes, Got: nodes}
	}
	return nil
}

// ListPerft returns every stored record.
func (s *Storage) ListPerft() ([]PerftRecord, error) {
	var out []PerftRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(perftPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec PerftRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})

	return out, err
}

// badgerLogger routes badger's log output through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	log.Error().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	log.Warn().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...any) {
	log.Debug().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...any) {
	log.Trace().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}
