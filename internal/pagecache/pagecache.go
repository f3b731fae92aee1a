// Package pagecache serves externally fetched pages from a store.Store until a
// fixed expiry, counting every access per URL.
//
// Without WithSingleFlight the check-then-fetch-then-store sequence is not
// locked: concurrent misses for the same URL each call the fetch function.
// With it, concurrent misses inside one process share a single fetch that is
// detached from any one caller's cancellation; each caller stops waiting when
// its own context ends. The access counter is incremented once per Fetch call
// in both modes.
package pagecache

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Belphemur/callcache/internal/apperrors"
	"github.com/Belphemur/callcache/internal/config"
	"github.com/Belphemur/callcache/internal/metrics"
	"github.com/Belphemur/callcache/internal/store"
)

// DefaultTTL is how long a fetched page is served from the store.
const DefaultTTL = 10 * time.Second

const (
	pageKeyPrefix  = "page_cache:"
	countKeyPrefix = "count:"
)

// FetchFunc retrieves the content of url from its origin.
type FetchFunc func(ctx context.Context, url string) (string, error)

// PageKey returns the store key holding the cached body of url.
func PageKey(url string) string {
	return pageKeyPrefix + url
}

// CountKey returns the store key holding the access counter of url.
func CountKey(url string) string {
	return countKeyPrefix + url
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the expiry of cached pages. Non-positive values keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSingleFlight makes concurrent misses for the same URL share one fetch.
func WithSingleFlight() Option {
	return func(c *Cache) {
		c.flights = &singleflight.Group{}
	}
}

// Cache wraps a FetchFunc with expiry-based caching.
type Cache struct {
	store   store.Store
	fetch   FetchFunc
	ttl     time.Duration
	flights *singleflight.Group
	logger  zerolog.Logger
}

// New creates a Cache reading and writing through s and calling fetch on misses.
func New(s store.Store, fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		store:  s,
		fetch:  fetch,
		ttl:    DefaultTTL,
		logger: config.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the expiry applied to newly cached pages.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fetch returns the content of url, from the store when a live entry exists and
// from the fetch function otherwise. The access counter is incremented before the
// lookup, hit or miss. A fetch failure is returned as *apperrors.ErrFetch wrapping
// the fetch error, and nothing is written to the store.
func (c *Cache) Fetch(ctx context.Context, url string) (string, error) {
	if _, err := c.store.Incr(ctx, CountKey(url)); err != nil {
		metrics.PageCacheRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	cached, ok, err := c.store.Get(ctx, PageKey(url))
	if err != nil {
		metrics.PageCacheRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	if ok {
		metrics.PageCacheRequestsTotal.WithLabelValues("hit").Inc()
		c.logger.Debug().Str("url", url).Msg("Page served from cache")
		return string(cached), nil
	}

	metrics.PageCacheRequestsTotal.WithLabelValues("miss").Inc()
	c.logger.Debug().Str("url", url).Msg("No cached page, fetching")

	if c.flights == nil {
		return c.refresh(ctx, url)
	}
	flight := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(url, func() (interface{}, error) {
		return c.refresh(flight, url)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.PageCacheSharedTotal.Inc()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// refresh fetches url and stores the body with the configured expiry.
func (c *Cache) refresh(ctx context.Context, url string) (string, error) {
	content, err := c.fetch(ctx, url)
	if err != nil {
		return "", &apperrors.ErrFetch{URL: url, Err: err}
	}
	if err := c.store.SetWithExpiry(ctx, PageKey(url), []byte(content), c.ttl); err != nil {
		return "", err
	}
	c.logger.Debug().Str("url", url).Dur("ttl", c.ttl).Msg("Cached page")
	return content, nil
}

// AccessCount returns how many times Fetch has been called for url. A URL never
// fetched returns zero.
func (c *Cache) AccessCount(ctx context.Context, url string) (int64, error) {
	raw, ok, err := c.store.Get(ctx, CountKey(url))
	if err != nil || !ok {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}
