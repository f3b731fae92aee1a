package store

import (
	"context"
	"time"
)

// instrumentedStore wraps a Store and records Prometheus metrics for reads,
// failures, and flushes under the given group label. Values and errors pass
// through unchanged.
type instrumentedStore struct {
	inner Store
	group string
}

func newInstrumentedStore(inner Store, group string) *instrumentedStore {
	return &instrumentedStore{inner: inner, group: group}
}

func (s *instrumentedStore) observe(op string, err error) {
	if err != nil {
		ErrorsTotal.WithLabelValues(s.group, op).Inc()
	}
}

func (s *instrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := s.inner.Get(ctx, key)
	switch {
	case err != nil:
		s.observe("get", err)
	case ok:
		HitsTotal.WithLabelValues(s.group).Inc()
	default:
		MissesTotal.WithLabelValues(s.group).Inc()
	}
	return val, ok, err
}

func (s *instrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.inner.Set(ctx, key, value)
	s.observe("set", err)
	return err
}

func (s *instrumentedStore) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.inner.SetWithExpiry(ctx, key, value, ttl)
	s.observe("setex", err)
	return err
}

func (s *instrumentedStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.inner.Incr(ctx, key)
	s.observe("incr", err)
	return n, err
}

func (s *instrumentedStore) Append(ctx context.Context, key string, entry []byte) error {
	err := s.inner.Append(ctx, key, entry)
	s.observe("append", err)
	return err
}

func (s *instrumentedStore) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	entries, err := s.inner.Range(ctx, key, start, stop)
	s.observe("range", err)
	return entries, err
}

func (s *instrumentedStore) Flush(ctx context.Context) error {
	err := s.inner.Flush(ctx)
	if err == nil {
		FlushesTotal.WithLabelValues(s.group).Inc()
	}
	s.observe("flush", err)
	return err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	err := s.inner.Ping(ctx)
	s.observe("ping", err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.inner.Close()
}
