package store

import (
	"context"
	"time"
)

// Store is the thin adapter over the external key-value backend. Every per-key
// operation is expected to be atomic on its own; no cross-key transaction is offered.
//
// All backend failures are reported as *apperrors.ErrStoreUnavailable. A missing key
// is not an error: Get returns (nil, false, nil).
type Store interface {
	// Get returns the raw bytes stored at key, or false when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes value at key with no expiry, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithExpiry writes value at key; the key disappears once ttl has elapsed.
	SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Incr atomically increments the integer at key, creating it at zero first when absent,
	// and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// Append atomically pushes entry to the tail of the list at key.
	Append(ctx context.Context, key string, entry []byte) error

	// Range returns list entries between start and stop inclusive. Negative indexes count
	// from the tail, so Range(ctx, key, 0, -1) reads the whole list.
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// Flush destructively removes every key in the store's namespace.
	Flush(ctx context.Context) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store (e.g., network connections).
	Close() error
}
