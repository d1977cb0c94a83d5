// Package kv provides the key-value stores backing the result cache.
//
// Three backends are available: SQLite (modernc, schema managed by goose),
// Badger, and a process-local map for tests and single-shot CLI runs.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by Get for a key that has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a byte-valued key-value store. Set fully replaces any previous value.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Driver names.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver string
	// Path is the database file (sqlite) or directory (badger).
	// Empty means in-memory for both.
	Path   string
	Logger *slog.Logger
}

// Open opens the store named by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		s := NewSQLiteStore()
		if err := s.Open(path); err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case DriverBadger:
		bcfg := DefaultBadgerConfig()
		if cfg.Path == "" {
			bcfg = InMemoryBadgerConfig()
		}
		bcfg.Path = cfg.Path
		bcfg.Logger = cfg.Logger
		return OpenBadger(bcfg)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
