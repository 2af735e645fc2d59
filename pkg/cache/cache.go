// Package cache stores exploration reports so that repeated queries over an
// unchanged graph document are answered without walking the graph again.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for sharing results between machines, and [NullCache] when caching is
// disabled. Keys come from a [Keyer] and embed a content hash of the graph,
// so editing a document invalidates every report computed from it.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/cpgwalk/pkg/observability"
)

// TTLQuery is how long a query report stays cached. Reports are keyed by
// graph content, so the TTL only bounds disk and memory use.
const TTLQuery = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value store with expiry.
type Cache interface {
	// Get returns the value stored under key. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}

// GetJSON looks up key and decodes the stored JSON into v. keyType names
// the kind of entry for the cache hooks. An entry that no longer decodes
// counts as a miss.
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) (bool, error) {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !hit || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

// NullCache stores nothing; every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that disables caching.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }
