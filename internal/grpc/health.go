package grpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Belphemur/callcache/internal/store"
)

// StoreService is the health service name reporting backing store reachability.
const StoreService = "callcache.v1.Store"

// StoreMonitor pings a store and mirrors the result into a health server.
type StoreMonitor struct {
	store  store.Store
	health *health.Server
	logger zerolog.Logger
	last   grpc_health_v1.HealthCheckResponse_ServingStatus
}

func newStoreMonitor(s store.Store, h *health.Server, logger zerolog.Logger) *StoreMonitor {
	return &StoreMonitor{
		store:  s,
		health: h,
		logger: logger,
		last:   grpc_health_v1.HealthCheckResponse_NOT_SERVING,
	}
}

// Check pings the store once and updates the health status.
func (m *StoreMonitor) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := m.store.Ping(ctx); err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		m.logger.Warn().Err(err).Msg("Store health check failed")
	}
	if status != m.last {
		m.logger.Info().Str("status", status.String()).Msg("Store health changed")
		m.last = status
	}
	m.health.SetServingStatus(StoreService, status)
	m.health.SetServingStatus("", status)
	return status
}

// Run checks the store immediately and then every interval until ctx is done.
func (m *StoreMonitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
