package store

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProviderConfig holds the configuration needed to create a store instance.
type ProviderConfig struct {
	// KeyPrefix namespaces every key. When empty the store owns its whole logical
	// database and Flush clears all of it.
	KeyPrefix string

	// Timeout bounds each backend operation. Zero means defaultTimeout.
	Timeout time.Duration

	// Size caps the number of keys held by the memory provider; writes creating keys
	// past it fail. Zero means unbounded.
	Size int

	// Now overrides the clock used by the memory provider for expiry. Defaults to time.Now.
	Now func() time.Time

	// RedisAddress is the Redis/Valkey server address (e.g., "localhost:6379").
	RedisAddress string

	// RedisPassword is the password for the Redis/Valkey server.
	RedisPassword string

	// RedisDB is the Redis/Valkey database number.
	RedisDB int

	// Group is an optional label value used to namespace Prometheus metrics
	// (store_hits_total, store_errors_total, etc.).
	// When non-empty the store is automatically wrapped with metric instrumentation.
	Group string
}

const defaultTimeout = 2 * time.Second

// Provider is a constructor function that creates a Store from config.
type Provider func(cfg ProviderConfig) (Store, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register registers a store provider under the given name.
// It panics if the name is already registered or the provider is nil.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("store: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("store: provider %q already registered", name))
	}
	providers[name] = p
}

// New creates a new Store using the named provider and the given config.
// When cfg.Group is non-empty the resulting store is wrapped with metric
// instrumentation labelled with Group.
func New(name string, cfg ProviderConfig) (Store, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("store: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Group == "" {
		return inner, nil
	}
	return newInstrumentedStore(inner, cfg.Group), nil
}

// RegisteredProviders returns a sorted list of registered provider names.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
