// Package cache provides a generic, thread-safe response cache with TTL
// expiry and bounded capacity.
//
// Entries expire at a fixed deadline set on insert; reads never extend the
// deadline. When an insert pushes the store past its configured capacity, a
// sweep removes expired entries only. Live entries are never evicted for
// space, so the store may temporarily exceed its bound.
//
// The cache is thread-safe with built-in statistics (always enabled for
// observability) and optional Prometheus metrics integration via functional
// options.
package cache

import (
	"time"

	"github.com/rajgottipati/HyperSim-SDK/errors"
)

// Cache represents a generic cache interface parameterized by value type V.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found and
	// unexpired, zero value and false otherwise. A hit increments the entry's
	// hit count and updates its last-accessed time; it never extends expiry.
	Get(key string) (V, bool)

	// Set stores a value with the store's default TTL. Returns true if a new
	// entry was created, false if an existing entry was replaced.
	Set(key string, value V) (bool, error)

	// SetWithTTL stores a value with an explicit TTL, overriding the default.
	SetWithTTL(key string, value V, ttl time.Duration) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries, including any expired
	// entries not yet collected.
	Size() int

	// Keys returns all unexpired keys currently in the cache.
	Keys() []string

	// Info returns metadata for an entry without counting a hit.
	Info(key string) (EntryInfo, bool)

	// Stats returns cache statistics if enabled, nil otherwise.
	Stats() *Statistics

	// Close shuts down the cache and releases any background resources.
	Close() error
}

// EvictCallback is called when an entry is evicted from the cache.
type EvictCallback[V any] func(key string, value V)

// EntryInfo is a snapshot of an entry's metadata.
type EntryInfo struct {
	Key          string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Hits         int64
	LastAccessed time.Time
}

// validateKey validates a cache key for basic requirements.
// Returns a classified error if the key is invalid.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
