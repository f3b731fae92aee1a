package grpc

import (
	"sync"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Belphemur/callcache/internal/config"
	"github.com/Belphemur/callcache/internal/store"
)

var (
	grpcServerMetrics         *grpcprom.ServerMetrics
	registerServerMetricsOnce sync.Once
)

// Server is a gRPC server exposing health checking and reflection. Its health
// status follows the reachability of the backing store.
type Server struct {
	*grpc.Server
	health  *health.Server
	monitor *StoreMonitor
}

// NewGRPCServer creates a gRPC server with Prometheus metrics, health checking
// and reflection. Health starts NOT_SERVING until the first store check.
func NewGRPCServer(s store.Store) *Server {
	// Set up Prometheus gRPC server metrics once per process
	registerServerMetricsOnce.Do(func() {
		grpcServerMetrics = grpcprom.NewServerMetrics(
			grpcprom.WithServerHandlingTimeHistogram(),
		)
		prometheus.MustRegister(grpcServerMetrics)
	})

	srvMetrics := grpcServerMetrics

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(srvMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(srvMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(StoreService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Register reflection service for tools like grpcurl
	reflection.Register(grpcServer)

	srvMetrics.InitializeMetrics(grpcServer)

	return &Server{
		Server:  grpcServer,
		health:  healthServer,
		monitor: newStoreMonitor(s, healthServer, config.GetLogger()),
	}
}

// Monitor returns the store monitor driving the health status.
func (s *Server) Monitor() *StoreMonitor {
	return s.monitor
}

// Shutdown marks every service NOT_SERVING and stops the server gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GracefulStop()
}
