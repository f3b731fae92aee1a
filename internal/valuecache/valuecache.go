// Package valuecache stores scalar values under freshly generated keys and reads
// them back with optional decoding. Every Store call is counted and recorded
// under the operation name "Cache.store", so its history can be replayed.
package valuecache

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Belphemur/callcache/internal/apperrors"
	"github.com/Belphemur/callcache/internal/config"
	"github.com/Belphemur/callcache/internal/instrument"
	"github.com/Belphemur/callcache/internal/replay"
	"github.com/Belphemur/callcache/internal/scalar"
	"github.com/Belphemur/callcache/internal/store"
)

// StoreOperation is the stable name under which Store calls are counted and recorded.
const StoreOperation = "Cache.store"

// Cache writes values through a store.Store under UUIDv4 keys.
type Cache struct {
	store  store.Store
	put    instrument.Func
	logger zerolog.Logger
}

// New creates a Cache over s.
//
// New flushes the store's whole namespace before returning: every key, counter and
// history list written by a previous run is deleted so each Cache starts empty.
// This reset is intentional and destructive; do not point a Cache at a namespace
// shared with other data.
func New(ctx context.Context, s store.Store) (*Cache, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, fmt.Errorf("resetting cache namespace: %w", err)
	}

	c := &Cache{
		store:  s,
		logger: config.GetLogger(),
	}
	// The counter wraps the recorder so a call is counted before its input is logged.
	c.put = instrument.CountCalls(s, StoreOperation,
		instrument.RecordHistory(s, StoreOperation, c.write))
	return c, nil
}

func (c *Cache) write(ctx context.Context, args ...scalar.Value) (scalar.Value, error) {
	key := uuid.NewString()
	if err := c.store.Set(ctx, key, args[0].Raw()); err != nil {
		return scalar.Value{}, err
	}
	c.logger.Debug().Str("key", key).Str("kind", args[0].Kind().String()).Msg("Stored value")
	return scalar.String(key), nil
}

// Store writes data under a new unique key and returns the key. data must be a
// string, []byte, integer, float or scalar.Value.
func (c *Cache) Store(ctx context.Context, data any) (string, error) {
	v, err := scalar.Of(data)
	if err != nil {
		return "", err
	}
	key, err := c.put(ctx, v)
	if err != nil {
		return "", err
	}
	return string(key.Raw()), nil
}

// Get returns the raw bytes stored at key. A missing key returns (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.store.Get(ctx, key)
}

// GetString returns the value at key decoded as UTF-8 text.
func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	return GetAs(ctx, c, key, DecodeString)
}

// GetInt returns the value at key parsed as a base-10 integer.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, bool, error) {
	return GetAs(ctx, c, key, DecodeInt)
}

// GetFloat returns the value at key parsed as a float.
func (c *Cache) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	return GetAs(ctx, c, key, DecodeFloat)
}

// GetAs reads key and applies decode to the raw bytes. A missing key returns the
// zero T and false without calling decode; a decode failure is returned as
// *apperrors.ErrDecode, never as a miss.
func GetAs[T any](ctx context.Context, c *Cache, key string, decode DecodeFunc[T]) (T, bool, error) {
	var zero T
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	if decode == nil {
		return zero, false, fmt.Errorf("nil decode function for key %q", key)
	}

	v, err := decode(raw)
	if err != nil {
		return zero, false, &apperrors.ErrDecode{Key: key, Err: err}
	}
	return v, true, nil
}

// Calls returns how many times Store has been called, failed attempts included.
func (c *Cache) Calls(ctx context.Context) (int64, error) {
	return instrument.Calls(ctx, c.store, StoreOperation)
}

// Replay writes the recorded Store history to w.
func (c *Cache) Replay(ctx context.Context, w io.Writer) error {
	return replay.Replay(ctx, c.store, StoreOperation, w)
}
