// Package health serves the standard gRPC health protocol so supervisors
// can observe whether the assistant is idle or inside a listening session.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/emmett/voxwake/internal/app"
)

const (
	// ServiceListener is SERVING while the assistant waits for a wake word
	ServiceListener = "voxwake.Listener"

	// ServiceSession is SERVING while a listening session is open
	ServiceSession = "voxwake.Session"
)

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	Logger *zap.Logger
}

// Server wraps the gRPC server and the health service
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	addr       string
	logger     *zap.Logger

	mu  sync.Mutex
	lis net.Listener
}

// NewServer creates a health server reporting the idle state
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     grpchealth.NewServer(),
		addr:       net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		logger:     logger,
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.SetListening(false)

	return s
}

// SetListening publishes the current state
func (s *Server) SetListening(listening bool) {
	idle, session := healthpb.HealthCheckResponse_SERVING, healthpb.HealthCheckResponse_NOT_SERVING
	if listening {
		idle, session = session, idle
	}
	s.health.SetServingStatus(ServiceListener, idle)
	s.health.SetServingStatus(ServiceSession, session)
}

// Watch keeps the published status in step with states
func (s *Server) Watch(states *app.StateMachine) {
	s.SetListening(states.Current() == app.StateListening)
	states.AddListener(func(_, newState app.State) {
		s.SetListening(newState == app.StateListening)
	})
}

// Start listens on the configured address and serves until Stop
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on lis until Stop
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	s.lis = lis
	s.mu.Unlock()

	s.logger.Info("Health server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case <-ctx.Done():
		s.Stop()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound address once serving
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Stop marks every service NOT_SERVING and stops gracefully
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
