package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Belphemur/callcache/internal/config"
	grpcserver "github.com/Belphemur/callcache/internal/grpc"
	"github.com/Belphemur/callcache/internal/instrument"
	"github.com/Belphemur/callcache/internal/metrics"
	"github.com/Belphemur/callcache/internal/pagecache"
	"github.com/Belphemur/callcache/internal/replay"
	"github.com/Belphemur/callcache/internal/store"
	"github.com/Belphemur/callcache/internal/valuecache"
	"github.com/Belphemur/callcache/internal/web"
)

// newFlagSet returns a flag set sharing the -store override.
func newFlagSet(name string, cfg *config.Config, out io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	provider := fs.String("store", cfg.Store.Provider, "store provider ("+strings.Join(store.RegisteredProviders(), ", ")+")")
	return fs, provider
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// openStore builds the configured store. group labels its Prometheus metrics.
func openStore(cfg *config.Config, provider, group string) (store.Store, error) {
	return store.New(provider, store.ProviderConfig{
		KeyPrefix:     cfg.Store.KeyPrefix,
		Timeout:       config.ParseDuration("store.timeout", cfg.Store.Timeout, 2*time.Second),
		Size:          cfg.Store.Memory.Size,
		RedisAddress:  cfg.Store.Redis.Address,
		RedisPassword: cfg.Store.Redis.Password,
		RedisDB:       cfg.Store.Redis.DB,
		Group:         group,
	})
}

// formatList renders raw list entries as a bracketed list of quoted strings.
func formatList(entries [][]byte) string {
	quoted := make([]string, len(entries))
	for i, e := range entries {
		quoted[i] = strconv.Quote(string(e))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func runDemo(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs, provider := newFlagSet("demo", cfg, out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	s, err := openStore(cfg, *provider, "valuecache")
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := valuecache.New(ctx, s)
	if err != nil {
		return err
	}
	for _, value := range []string{"first", "second", "third"} {
		key, err := c.Store(ctx, value)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, key)
	}

	inputs, err := s.Range(ctx, instrument.InputsKey(valuecache.StoreOperation), 0, -1)
	if err != nil {
		return err
	}
	outputs, err := s.Range(ctx, instrument.OutputsKey(valuecache.StoreOperation), 0, -1)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "inputs: %s\n", formatList(inputs))
	fmt.Fprintf(out, "outputs: %s\n", formatList(outputs))

	return c.Replay(ctx, out)
}

func runReplay(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs, provider := newFlagSet("replay", cfg, out)
	operation := fs.String("op", valuecache.StoreOperation, "operation name to replay")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	s, err := openStore(cfg, *provider, "replay")
	if err != nil {
		return err
	}
	defer s.Close()

	return replay.Replay(ctx, s, *operation, out)
}

func runFetch(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs, provider := newFlagSet("fetch", cfg, out)
	times := fs.Int("n", 1, "number of fetches")
	ttl := fs.Duration("ttl", config.ParseDuration("page_cache.ttl", cfg.PageCache.TTL, pagecache.DefaultTTL), "page expiry")
	singleFlight := fs.Bool("single-flight", cfg.PageCache.SingleFlight, "share concurrent misses")
	printBody := fs.Bool("body", false, "print the page body")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: fetch takes exactly one URL", errUsage)
	}
	url := fs.Arg(0)

	s, err := openStore(cfg, *provider, "pagecache")
	if err != nil {
		return err
	}
	defer s.Close()

	opts := []pagecache.Option{pagecache.WithTTL(*ttl)}
	if *singleFlight {
		opts = append(opts, pagecache.WithSingleFlight())
	}
	cache := pagecache.New(s, web.NewFetcher(cfg).Fetch, opts...)

	var body string
	for i := 0; i < *times; i++ {
		if body, err = cache.Fetch(ctx, url); err != nil {
			return err
		}
	}
	if *printBody {
		fmt.Fprintln(out, body)
	}

	count, err := cache.AccessCount(ctx, url)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s accessed %d times\n", url, count)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	logger := config.GetLogger()
	fs, provider := newFlagSet("serve", cfg, io.Discard)
	interval := fs.Duration("check-interval", 10*time.Second, "store health check interval")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("%w: -check-interval must be positive, got %v", errUsage, *interval)
	}

	s, err := openStore(cfg, *provider, "serve")
	if err != nil {
		return err
	}
	defer s.Close()

	grpcServer := grpcserver.NewGRPCServer(s)
	go grpcServer.Monitor().Run(ctx, *interval)

	// Start Prometheus metrics HTTP server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}

	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutting down gRPC server")
		grpcServer.Shutdown()
	}()

	logger.Info().Str("address", address).Str("store", *provider).Msg("Starting gRPC server")
	if err := grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("serving gRPC: %w", err)
	}
	logger.Info().Msg("Server stopped gracefully")
	return nil
}
