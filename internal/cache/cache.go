// Package cache stores analysis results under an opaque session id so later
// graph queries and exports do not recompute them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dysregnet/dysregnet-explorer/internal/kv"
	"github.com/dysregnet/dysregnet-explorer/internal/observability"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// DefaultNamespace prefixes every session key.
const DefaultNamespace = "DysRegNet_"

// DefaultTimeout bounds every store call.
const DefaultTimeout = 5 * time.Second

// ErrCorruptEntry is returned when a stored record cannot be decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Entry is the record cached for a session.
type Entry struct {
	Results    *core.Result    `json:"results"`
	Parameters core.Parameters `json:"parameters"`
}

// Config configures a ResultCache.
type Config struct {
	Store     kv.Store
	Namespace string
	Timeout   time.Duration
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// ResultCache reads and writes session entries on a kv.Store.
type ResultCache struct {
	store     kv.Store
	namespace string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a ResultCache.
func New(cfg Config) *ResultCache {
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResultCache{
		store:     cfg.Store,
		namespace: ns,
		timeout:   timeout,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// Key returns the store key of a session.
func (c *ResultCache) Key(sessionID string) string {
	return c.namespace + sessionID
}

// Put stores result and params for sessionID, replacing any previous entry.
func (c *ResultCache) Put(ctx context.Context, sessionID string, result *core.Result, params core.Parameters) error {
	data, err := json.Marshal(Entry{Results: result, Parameters: params})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.store.Set(ctx, c.Key(sessionID), data); err != nil {
		c.metrics.CacheOp("put", "unavailable")
		return c.unavailable("put", sessionID, err)
	}
	c.metrics.CacheOp("put", "ok")
	c.logger.Debug("cached result", "session", sessionID, "bytes", len(data))
	return nil
}

// Get returns the entry of sessionID. A session with no entry yields
// core.ErrCacheMiss; an unreachable or slow store core.ErrServiceUnavailable.
func (c *ResultCache) Get(ctx context.Context, sessionID string) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.store.Get(ctx, c.Key(sessionID))
	if errors.Is(err, kv.ErrNotFound) {
		c.metrics.CacheOp("get", "miss")
		return nil, fmt.Errorf("%w: %s", core.ErrCacheMiss, sessionID)
	}
	if err != nil {
		c.metrics.CacheOp("get", "unavailable")
		return nil, c.unavailable("get", sessionID, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.metrics.CacheOp("get", "corrupt")
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptEntry, sessionID, err)
	}
	if entry.Results == nil {
		c.metrics.CacheOp("get", "corrupt")
		return nil, fmt.Errorf("%w: %s: no results", ErrCorruptEntry, sessionID)
	}
	if err := entry.Results.Validate(); err != nil {
		c.metrics.CacheOp("get", "corrupt")
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptEntry, sessionID, err)
	}
	c.metrics.CacheOp("get", "hit")
	return &entry, nil
}

// Exists reports whether sessionID has an entry.
func (c *ResultCache) Exists(ctx context.Context, sessionID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ok, err := c.store.Exists(ctx, c.Key(sessionID))
	if err != nil {
		c.metrics.CacheOp("exists", "unavailable")
		return false, c.unavailable("exists", sessionID, err)
	}
	c.metrics.CacheOp("exists", "ok")
	return ok, nil
}

func (c *ResultCache) unavailable(op, sessionID string, err error) error {
	c.logger.Warn("cache store call failed", "op", op, "session", sessionID, "error", err)
	return fmt.Errorf("%w: cache %s: %w", core.ErrServiceUnavailable, op, err)
}
