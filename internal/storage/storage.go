// Package storage persists engine options and lifetime search statistics
// between sessions, backed by BadgerDB.
package storage

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyOptions = "options"
	keyStats   = "stats"
)

// Options holds the engine settings worth keeping between sessions.
type Options struct {
	HashSizeMB     int       `json:"hash_size_mb"`
	UseBook        bool      `json:"use_book"`
	BookPath       string    `json:"book_path"`
	ContemptFactor int       `json:"contempt_factor"`
	LastUsed       time.Time `json:"last_used"`
}

// DefaultOptions returns the factory settings.
func DefaultOptions() *Options {
	return &Options{
		HashSizeMB:     64,
		UseBook:        true,
		ContemptFactor: 20,
	}
}

// Stats accumulates search statistics across the engine's lifetime.
type Stats struct {
	SearchesRun     int64         `json:"searches_run"`
	NodesVisited    int64         `json:"nodes_visited"`
	TotalSearchTime time.Duration `json:"total_search_time"`
	DeepestSearch   int           `json:"deepest_search"`
}

// Store wraps the badger database.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store in the default database directory.
func Open() (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dir)
}

// OpenAt opens (or creates) the store at dir.
func OpenAt(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) load(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

func (s *Store) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// LoadOptions returns the saved options, or defaults when none exist.
func (s *Store) LoadOptions() (*Options, error) {
	opts := DefaultOptions()
	_, err := s.load(keyOptions, opts)
	return opts, err
}

// SaveOptions persists the options, stamping the time of use.
func (s *Store) SaveOptions(opts *Options) error {
	opts.LastUsed = time.Now()
	return s.save(keyOptions, opts)
}

// LoadStats returns the accumulated statistics, empty when none exist.
func (s *Store) LoadStats() (*Stats, error) {
	stats := &Stats{}
	_, err := s.load(keyStats, stats)
	return stats, err
}

// RecordSearch folds one finished search into the lifetime statistics.
func (s *Store) RecordSearch(nodes int64, depth int, elapsed time.Duration) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	stats.SearchesRun++
	stats.NodesVisited += nodes
	stats.TotalSearchTime += elapsed
	if depth > stats.DeepestSearch {
		stats.DeepestSearch = depth
	}
	return s.save(keyStats, stats)
}
