package port

import (
	"context"
	"time"
)

// Cache is the minimal contract for the process-external key-value cache.
// Implementations must be concurrency-safe and context-aware.
//
// Values are opaque bytes: the feed assembler stores serialized responses and
// replays them byte-identically on a hit, so the port must not re-encode.
type Cache interface {
	// Get fetches the value for key. Misses are reported as ErrMiss; a
	// non-nil error other than ErrMiss means a transport or server failure.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL
	// means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes one or more keys and returns the number removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss in a typed way, so callers can differentiate
// misses from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
