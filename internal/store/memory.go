package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/Belphemur/callcache/internal/apperrors"
)

func init() {
	Register("memory", newMemoryStore)
}

var (
	errWrongType  = errors.New("WRONGTYPE operation against a key holding the wrong kind of value")
	errNotInteger = errors.New("value is not an integer or out of range")
	errStoreFull  = errors.New("key limit reached")
)

type memoryEntry struct {
	value     []byte
	list      [][]byte
	isList    bool
	expiresAt time.Time
}

// memoryStore is an in-process Store mirroring the Redis semantics the cache relies on.
// A single mutex makes each operation atomic, including the read-modify-write of Incr
// and Append. Expired keys are dropped lazily on access. Keys are never evicted: with
// a positive limit, writes that would create a key past it fail instead.
type memoryStore struct {
	mu     sync.Mutex
	inner  *simplelru.LRU[string, *memoryEntry]
	limit  int
	prefix string
	now    func() time.Time
}

func newMemoryStore(cfg ProviderConfig) (Store, error) {
	if cfg.Size < 0 {
		return nil, fmt.Errorf("memory store: negative size %d", cfg.Size)
	}
	inner, err := simplelru.NewLRU[string, *memoryEntry](math.MaxInt, nil)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &memoryStore{inner: inner, limit: cfg.Size, prefix: cfg.KeyPrefix, now: now}, nil
}

// admit reports whether key may be written. Caller must hold m.mu.
func (m *memoryStore) admit(op, key string) error {
	if m.limit == 0 || m.inner.Contains(m.prefix+key) || m.inner.Len() < m.limit {
		return nil
	}
	m.sweep()
	if m.inner.Len() < m.limit {
		return nil
	}
	return apperrors.NewStoreUnavailableError(op, key, errStoreFull)
}

// sweep drops every expired key. Caller must hold m.mu.
func (m *memoryStore) sweep() {
	now := m.now()
	for _, k := range m.inner.Keys() {
		if e, ok := m.inner.Peek(k); ok && !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			m.inner.Remove(k)
		}
	}
}

// lookup returns the live entry for key. Caller must hold m.mu.
func (m *memoryStore) lookup(key string) (*memoryEntry, bool) {
	e, ok := m.inner.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.inner.Remove(key)
		return nil, false
	}
	return e, true
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(m.prefix + key)
	if !ok {
		return nil, false, nil
	}
	if e.isList {
		return nil, false, apperrors.NewStoreUnavailableError("get", key, errWrongType)
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.admit("set", key); err != nil {
		return err
	}
	m.inner.Add(m.prefix+key, &memoryEntry{value: append([]byte(nil), value...)})
	return nil
}

func (m *memoryStore) SetWithExpiry(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return apperrors.NewStoreUnavailableError("setex", key, fmt.Errorf("invalid expiry %v", ttl))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.admit("setex", key); err != nil {
		return err
	}
	m.inner.Add(m.prefix+key, &memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	})
	return nil
}

func (m *memoryStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(m.prefix + key)
	if !ok {
		if err := m.admit("incr", key); err != nil {
			return 0, err
		}
		e = &memoryEntry{}
		m.inner.Add(m.prefix+key, e)
	}
	if e.isList {
		return 0, apperrors.NewStoreUnavailableError("incr", key, errWrongType)
	}

	var n int64
	if len(e.value) > 0 {
		parsed, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, apperrors.NewStoreUnavailableError("incr", key, errNotInteger)
		}
		n = parsed
	}
	n++
	e.value = strconv.AppendInt(e.value[:0], n, 10)
	return n, nil
}

func (m *memoryStore) Append(_ context.Context, key string, entry []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(m.prefix + key)
	if !ok {
		if err := m.admit("append", key); err != nil {
			return err
		}
		e = &memoryEntry{isList: true}
		m.inner.Add(m.prefix+key, e)
	}
	if !e.isList {
		return apperrors.NewStoreUnavailableError("append", key, errWrongType)
	}
	e.list = append(e.list, append([]byte(nil), entry...))
	return nil
}

func (m *memoryStore) Range(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(m.prefix + key)
	if !ok {
		return [][]byte{}, nil
	}
	if !e.isList {
		return nil, apperrors.NewStoreUnavailableError("range", key, errWrongType)
	}

	from, to, ok := listBounds(int64(len(e.list)), start, stop)
	if !ok {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, to-from+1)
	for _, v := range e.list[from : to+1] {
		out = append(out, append([]byte(nil), v...))
	}
	return out, nil
}

// listBounds resolves LRANGE-style indexes against a list of length n.
func listBounds(n, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

func (m *memoryStore) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.prefix == "" {
		m.inner.Purge()
		return nil
	}
	for _, k := range m.inner.Keys() {
		if strings.HasPrefix(k, m.prefix) {
			m.inner.Remove(k)
		}
	}
	return nil
}

func (m *memoryStore) Ping(_ context.Context) error {
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}
