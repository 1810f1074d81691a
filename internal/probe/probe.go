package probe

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health service names reported alongside the overall status.
const (
	ServiceConfig       = "botdash.config"
	ServiceNotification = "botdash.notification"
)

// Server is a gRPC server exposing only the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New creates a Server with every service marked SERVING.
func New() *Server {
	hs := health.NewServer()
	for _, svc := range []string{"", ServiceConfig, ServiceNotification} {
		hs.SetServingStatus(svc, healthpb.HealthCheckResponse_SERVING)
	}

	gs := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor()))
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{grpc: gs, health: hs}
}

// Serve accepts connections on lis until Shutdown is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Shutdown marks every service NOT_SERVING and stops the server gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
