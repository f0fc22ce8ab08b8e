// Package grpc serves the gRPC liveness surface (C11). It wires
// google.golang.org/grpc/health's prebuilt HealthServer plus gRPC server
// reflection -- grounded on the teacher's cmd/server/main.go
// setupGRPCServer/setupHealthServer pattern, minus the application-specific
// service registered there.
package grpc

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server wraps a grpc.Server exposing the standard health service and the
// server reflection service.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
}

func NewServer(logger *zap.Logger) *Server {
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()

	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{grpcServer: grpcServer, health: healthServer, logger: logger}
}

// SetServing marks the named service (empty string means the overall server)
// as SERVING or NOT_SERVING.
func (s *Server) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}
