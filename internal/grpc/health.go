package grpc

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"neighborhub/internal/observability"
)

// ServiceName is the name reported through the health protocol.
const ServiceName = "neighborhub"

// Pinger checks the backing store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer exposes grpc.health.v1 for the service. The service reports
// NOT_SERVING until the first successful store ping.
type HealthServer struct {
	server *gogrpc.Server
	health *health.Server
	pinger Pinger

	mu      sync.Mutex
	serving bool
}

func NewHealthServer(pinger Pinger) *HealthServer {
	server := gogrpc.NewServer(
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
		gogrpc.UnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
		gogrpc.StreamInterceptor(observability.GRPCServerMetricsStreamInterceptor()),
	)
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	return &HealthServer{server: server, health: hs, pinger: pinger}
}

// CheckStore pings the store once and updates the reported status.
func (s *HealthServer) CheckStore(ctx context.Context) bool {
	ok := true
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.pinger.PingContext(ctx); err != nil {
			ok = false
			log.Printf("grpc health check failed: service=%s err=%v", ServiceName, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok == s.serving {
		return ok
	}
	s.serving = ok
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	return ok
}

// Watch checks the store every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	s.CheckStore(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckStore(ctx)
		}
	}
}

// Serve blocks serving on lis.
func (s *HealthServer) Serve(lis net.Listener) error {
	log.Printf("grpc health listening: addr=%s", lis.Addr())
	return s.server.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
