// Package offline keeps the last successful response for a key so it can be
// served when the network is unavailable. It is a fallback, never a
// read-first cache.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/pawlog/pkg/kvstore"
)

const (
	// KeyPrefix namespaces cache entries in the shared key-value backend.
	KeyPrefix = "cache_"

	DefaultTTL = 30 * time.Minute
)

// entry is the stored representation of a cached value.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Cache stores JSON values with a capture timestamp.
type Cache struct {
	Store  kvstore.Store
	TTL    time.Duration
	Logger *slog.Logger

	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

func NewCache(store kvstore.Store, logger *slog.Logger) *Cache {
	return &Cache{
		Store:  store,
		TTL:    DefaultTTL,
		Logger: logger,
		Now:    time.Now,
	}
}

// Set overwrites key with value and the current time.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("offline: marshal %q: %w", key, err)
	}

	raw, err := json.Marshal(entry{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("offline: marshal entry %q: %w", key, err)
	}

	return c.Store.Set(ctx, KeyPrefix+key, string(raw))
}

// Get returns the cached JSON for key. Backend failures, corrupted entries,
// and expired entries are all reported as a miss; expired entries are
// removed on the way out.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, found, err := c.Store.Get(ctx, KeyPrefix+key)
	if err != nil {
		c.logger().Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Data == nil {
		c.logger().Debug("cache entry corrupted", "key", key)
		return nil, false
	}

	if c.expired(e) {
		if err := c.Store.Delete(ctx, KeyPrefix+key); err != nil {
			c.logger().Warn("failed to delete expired cache entry", "key", key, "error", err)
		}
		return nil, false
	}

	return e.Data, true
}

// Lookup decodes the cached value for key into dst. It reports whether a
// usable entry was found.
func (c *Cache) Lookup(ctx context.Context, key string, dst any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger().Debug("cache entry has unexpected shape", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.Store.Delete(ctx, KeyPrefix+key)
}

// InvalidateAll removes every cache entry. Other keys in the backend, such
// as session tokens, are left alone.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	keys, err := c.Store.Keys(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("offline: list entries: %w", err)
	}

	for _, k := range keys {
		if err := c.Store.Delete(ctx, k); err != nil {
			return fmt.Errorf("offline: delete %q: %w", strings.TrimPrefix(k, KeyPrefix), err)
		}
	}
	return nil
}

// Purge deletes expired and unreadable entries and returns how many were
// removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	keys, err := c.Store.Keys(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("offline: list entries: %w", err)
	}

	removed := 0
	for _, k := range keys {
		raw, found, err := c.Store.Get(ctx, k)
		if err != nil {
			return removed, fmt.Errorf("offline: read %q: %w", k, err)
		}
		if !found {
			continue
		}

		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err == nil && !c.expired(e) {
			continue
		}

		if err := c.Store.Delete(ctx, k); err != nil {
			return removed, fmt.Errorf("offline: delete %q: %w", k, err)
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) expired(e entry) bool {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	age := c.now().Sub(time.UnixMilli(e.Timestamp))
	return age > ttl
}

func (c *Cache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
