package rpcapi

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/reflection"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/pkg/api/auth"
)

// GRPCServer wraps a *grpc.Server serving UpdateService, with the same
// listen/shutdown shape as pkg/api.Server.
type GRPCServer struct {
	server       *grpc.Server
	listener     net.Listener
	port         int
	shutdownOnce sync.Once
}

// NewGRPCServer builds a GRPCServer bound to port, authenticating capability-gated
// RPCs against authenticator.
func NewGRPCServer(port int, s *Server, authenticator *auth.Authenticator) (*GRPCServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("rpcapi: listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(encoding.GetCodec(codecName)),
		grpc.ChainUnaryInterceptor(
			UnaryAuthInterceptor(authenticator),
			UnaryErrorInterceptor(),
		),
	)
	RegisterUpdateServiceServer(grpcServer, s)
	reflection.Register(grpcServer)

	return &GRPCServer{server: grpcServer, listener: listener, port: port}, nil
}

// Start serves requests until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("update grpc server listening", "port", s.port)
		if err := s.server.Serve(s.listener); err != nil {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("update grpc server shutdown signal received")
		s.Stop()
		return nil
	case err := <-errChan:
		return fmt.Errorf("update grpc server failed: %w", err)
	}
}

// Stop gracefully stops the gRPC server. Safe to call multiple times.
func (s *GRPCServer) Stop() {
	s.shutdownOnce.Do(func() {
		s.server.GracefulStop()
		logger.Info("update grpc server stopped gracefully")
	})
}

// Port returns the TCP port the server listens on.
func (s *GRPCServer) Port() int {
	return s.port
}
