package grpc

import (
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type ServerConfig struct {
	RequestTimeout time.Duration
	Verifier       tokenVerifier
	Limiter        limiter
	Logger         *slog.Logger
}

// NewServer builds a grpc.Server with the booking service and the standard
// health service registered.
func NewServer(svc bookingService, cfg ServerConfig) (*grpc.Server, *health.Server) {
	interceptors := []grpc.UnaryServerInterceptor{
		TimeoutInterceptor(cfg.RequestTimeout),
		AuthInterceptor(cfg.Verifier, cfg.Logger),
	}
	if cfg.Limiter != nil {
		interceptors = append(interceptors, RateLimitInterceptor(cfg.Limiter))
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterBookingServiceServer(srv, NewBookingServer(svc, cfg.Logger))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv, hs
}
