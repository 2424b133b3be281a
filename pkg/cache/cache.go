// Package cache provides the byte-level cache used for downloaded manifests.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance, so concurrent crawl workers on
//     different hosts download each POM once
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer]; [ScopedKeyer] prefixes them so private
// repositories do not share entries with public ones.
//
// # Errors and retries
//
// [ErrNotFound] and [ErrNetwork] are the sentinel errors of the HTTP layer.
// Wrap transient failures with [Retryable] so [RetryWithBackoff] retries them.
package cache

import (
	"context"
	"time"
)

// TTLManifest is the default lifetime of a cached manifest. Released POMs
// are immutable, the TTL only bounds disk usage.
const TTLManifest = 24 * time.Hour

// Cache stores opaque byte payloads by key.
//
// Get returns (nil, false, nil) on a miss. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
