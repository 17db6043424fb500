// Package cache holds the key-value caches behind display title lookups: an
// in-process LRU and a Redis backend shared between farm replicas.
package cache

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// NullCacheValue marks a cached empty result so it is not fetched again.
const NullCacheValue = "$NULL$"

// Cache is a string key-value store. Get returns "" and a nil error on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)

	// Set stores value for ttl. Backends differ on ttl <= 0, so callers pass
	// a positive ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Del(ctx context.Context, keys ...string) error

	// Ping verifies the cache is reachable
	Ping(ctx context.Context) error

	Close() error
}

// GetWithCached implements cache-aside with null value caching. On a miss fn
// is called and its result stored; empty results are stored as NullCacheValue
// for emptyTTL. Cache failures fall through to fn.
func GetWithCached(
	ctx context.Context,
	cache Cache,
	key string,
	ttl time.Duration,
	emptyTTL time.Duration,
	fn func(context.Context) (string, error),
) (string, error) {
	if cached, err := cache.Get(ctx, key); err == nil && cached != "" {
		if cached == NullCacheValue {
			return "", nil
		}
		return cached, nil
	}

	data, err := fn(ctx)
	if err != nil {
		return "", err
	}

	if data == "" {
		_ = cache.Set(ctx, key, NullCacheValue, JitterTTL(emptyTTL))
		return "", nil
	}
	_ = cache.Set(ctx, key, data, JitterTTL(ttl))
	return data, nil
}

// JitterTTL shortens ttl by up to a tenth so entries written together do not
// expire together.
func JitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	maxJitter := int64(ttl / 10)
	if maxJitter <= 0 {
		return ttl
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter+1))
	if err != nil {
		return ttl
	}
	return ttl - time.Duration(n.Int64())
}
