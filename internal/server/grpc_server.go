package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/buddyup/internal/config"
)

// NewGRPCServer builds a server with the auth and logging interceptors, the
// standard health service and reflection, and registers every registrar.
func NewGRPCServer(tokens TokenParser, log *slog.Logger, registrars ...Registrar) *grpc.Server {
	if log == nil {
		log = slog.Default()
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recoverInterceptor(log),
			loggingInterceptor(log),
			authInterceptor(tokens),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	for name := range grpcServer.GetServiceInfo() {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer listens on the configured address and serves until ctx is
// cancelled, then drains in-flight calls.
func StartGRPCServer(ctx context.Context, cfg *config.Config, tokens TokenParser, log *slog.Logger, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(tokens, log, registrars...)

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}
