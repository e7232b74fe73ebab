package kvstore

import (
	"context"
	"time"
)

// Store is the shared coordination store. Nonce counters and leases,
// circuit breaker state and the idempotency cache all go through it, so
// multiple server instances observe the same state. All mutations rely on
// the atomic primitives listed here, never on in-process locking.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores key without expiry.
	Set(ctx context.Context, key string, value string) error

	// SetEx stores key with the given TTL.
	SetEx(ctx context.Context, key string, value string, ttl time.Duration) error

	// SetNX stores key with the given TTL only if it does not exist and
	// reports whether the write happened. This is the lease primitive.
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Del removes the given keys.
	Del(ctx context.Context, keys ...string) error

	// Incr atomically increments the integer value at key and returns the result.
	Incr(ctx context.Context, key string) (int64, error)

	// Exists reports whether key exists.
	Exists(ctx context.Context, key string) (bool, error)
}
