package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/pkg/metrics"
)

// metricsServer exposes the Prometheus registry on its own port, with the
// same listen/graceful-shutdown shape as pkg/api.Server and
// pkg/rpcapi.GRPCServer.
type metricsServer struct {
	server       *http.Server
	port         int
	shutdownOnce sync.Once
}

func newMetricsServer(port int) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &metricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		port: port,
	}
}

func (s *metricsServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "port", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

func (s *metricsServer) stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
		}
	})
	return shutdownErr
}
