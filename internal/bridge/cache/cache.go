// Package cache memoizes successful results of deterministic operations.
//
// Entries are keyed by the kernel set fingerprint, the operation and a hash
// of the canonical CBOR encoding of the arguments. Only successes are stored.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

// KeyPrefix namespaces every cache key.
const KeyPrefix = "astro:v1:"

// ErrMiss is returned by a Store when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Stores int64 `json:"stores"`
	Errors int64 `json:"errors"`
}

// Cache stores encoded result payloads in a Store.
// Backend errors are logged and treated as misses.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	stores atomic.Int64
	errors atomic.Int64
}

// New creates a cache over store. A zero ttl keeps entries until evicted.
func New(store Store, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, ttl: ttl, logger: logger}
}

// Key builds the cache key of a call.
func Key(fingerprint, operation string, arity int, args []term.Term) (string, error) {
	encoded, err := term.MarshalCBOR(args...)
	if err != nil {
		return "", fmt.Errorf("encode arguments: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return fmt.Sprintf("%s%s:%s/%d:%s", KeyPrefix, fingerprint, operation, arity, hex.EncodeToString(sum[:])), nil
}

// Lookup returns the cached payload for key.
func (c *Cache) Lookup(ctx context.Context, key string) ([]term.Term, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.errors.Add(1)
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}

	payload, err := term.UnmarshalCBOR(data)
	if err != nil {
		c.errors.Add(1)
		c.misses.Add(1)
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	c.hits.Add(1)
	return payload, true
}

// Save stores payload under key.
func (c *Cache) Save(ctx context.Context, key string, payload []term.Term) {
	data, err := term.MarshalCBOR(payload...)
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	c.stores.Add(1)
}

// Stats returns the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Stores: c.stores.Load(),
		Errors: c.errors.Load(),
	}
}

// Ping checks the backend.
func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.store.Close()
}
