package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Belphemur/callcache/internal/apperrors"
)

func init() {
	Register("redis", newRedisStore)
}

// redisStore implements Store on top of Redis/Valkey primitives:
//
//   - Get/Set/SetWithExpiry map to GET, SET and SET ... PX.
//   - Incr maps to INCR, which creates the key at zero before incrementing.
//   - Append/Range map to RPUSH and LRANGE.
//   - Flush maps to FLUSHDB when the store owns the whole database, or to a
//     SCAN prefix* + DEL sweep when a key prefix is configured.
//
// Every command runs under a per-operation deadline derived from the caller's context.
type redisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func newRedisStore(cfg ProviderConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Verify connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", apperrors.NewStoreUnavailableError("ping", "", err))
	}

	return &redisStore{
		client:  client,
		prefix:  cfg.KeyPrefix,
		timeout: cfg.Timeout,
	}, nil
}

func (r *redisStore) key(k string) string {
	return r.prefix + k
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		// redis.Nil means the key doesn't exist (or has expired); a normal miss.
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewStoreUnavailableError("get", key, err)
	}
	return val, true, nil
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte) error {
	return r.set(ctx, "set", key, value, 0)
}

func (r *redisStore) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return apperrors.NewStoreUnavailableError("setex", key, fmt.Errorf("invalid expiry %v", ttl))
	}
	return r.set(ctx, "setex", key, value, ttl)
}

func (r *redisStore) set(ctx context.Context, op, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return apperrors.NewStoreUnavailableError(op, key, err)
	}
	return nil
}

func (r *redisStore) Incr(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.client.Incr(ctx, r.key(key)).Result()
	if err != nil {
		return 0, apperrors.NewStoreUnavailableError("incr", key, err)
	}
	return n, nil
}

func (r *redisStore) Append(ctx context.Context, key string, entry []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.RPush(ctx, r.key(key), entry).Err(); err != nil {
		return apperrors.NewStoreUnavailableError("append", key, err)
	}
	return nil
}

func (r *redisStore) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vals, err := r.client.LRange(ctx, r.key(key), start, stop).Result()
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("range", key, err)
	}
	entries := make([][]byte, len(vals))
	for i, v := range vals {
		entries[i] = []byte(v)
	}
	return entries, nil
}

func (r *redisStore) Flush(ctx context.Context) error {
	if r.prefix == "" {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			return apperrors.NewStoreUnavailableError("flush", "", err)
		}
		return nil
	}
	return r.scanAndDelete(ctx, escapeGlob(r.prefix))
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '*', '?', '[', ']':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func (r *redisStore) scanAndDelete(ctx context.Context, pattern string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*r.timeout)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern+"*", 100).Result()
		if err != nil {
			return apperrors.NewStoreUnavailableError("flush", "", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return apperrors.NewStoreUnavailableError("flush", "", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *redisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewStoreUnavailableError("ping", "", err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
