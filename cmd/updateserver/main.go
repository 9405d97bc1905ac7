// Command updateserver is the update distribution service daemon: it loads
// configuration, wires the catalog/cache/queue/storage singletons, and
// serves the HTTP and gRPC API surfaces. If QueueConfig.Workers >= 1 it
// also runs that many pipeline worker goroutines draining the job queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nextmu/updateservice/internal/logger"
	"github.com/nextmu/updateservice/internal/telemetry"
	"github.com/nextmu/updateservice/pkg/api"
	"github.com/nextmu/updateservice/pkg/api/auth"
	"github.com/nextmu/updateservice/pkg/catalog"
	"github.com/nextmu/updateservice/pkg/config"
	"github.com/nextmu/updateservice/pkg/manifestcache"
	"github.com/nextmu/updateservice/pkg/metrics"
	"github.com/nextmu/updateservice/pkg/pipeline"
	"github.com/nextmu/updateservice/pkg/queue"
	"github.com/nextmu/updateservice/pkg/resolver"
	"github.com/nextmu/updateservice/pkg/rpcapi"
	"github.com/nextmu/updateservice/pkg/storage"
	"github.com/nextmu/updateservice/pkg/upload"

	// Registers the Prometheus constructors pkg/metrics dispatches to.
	_ "github.com/nextmu/updateservice/pkg/metrics/prometheus"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (default: environment + built-in defaults)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "updateservice",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "updateservice",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		log.Fatalf("failed to initialize profiling: %v", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	// Metrics are initialized before any storage/queue singleton so their
	// constructors see a live registry.
	metrics.Init(cfg.Metrics.Enabled)
	logger.Info("updateservice starting", "version", version, "commit", commit, "built", date)

	cat, err := catalog.Connect(ctx, catalog.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatalf("failed to connect to catalog store: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cat.Close(shutdownCtx); err != nil {
			logger.Error("catalog close error", "error", err)
		}
	}()
	if err := cat.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure catalog indexes: %v", err)
	}

	rdb := config.BuildRedisClient(cfg.Redis)
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to reach redis: %v", err)
	}

	inputStore, err := config.BuildStorage(ctx, cfg.Input)
	if err != nil {
		log.Fatalf("failed to build input storage: %v", err)
	}
	inputStore = storage.Instrument("input", inputStore, metrics.NewStorageMetrics())

	outputStore, err := config.BuildStorage(ctx, cfg.Output)
	if err != nil {
		log.Fatalf("failed to build output storage: %v", err)
	}
	outputStore = storage.Instrument("output", outputStore, metrics.NewStorageMetrics())

	cache := manifestcache.New(rdb)
	jobQueue := queue.New(rdb, cfg.Queue.Name).WithMetrics(metrics.NewQueueMetrics())
	coordinator := upload.New(cat, inputStore, jobQueue)
	resolve := resolver.New(cat, cache)
	authenticator := auth.New(auth.Config{
		IntrospectionURL: cfg.OpenID.IntrospectionURL,
		ClientID:         cfg.OpenID.ClientID,
		ClientSecret:     cfg.OpenID.ClientSecret,
		CacheTTLFloor:    cfg.OpenID.CacheTTLFloor,
	}, rdb)

	handlers := api.NewHandlers(cat, jobQueue, resolve)
	httpServer := api.NewServer(api.Config{
		Port:         cfg.APIPort,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, handlers, authenticator, cat, rdb)

	rpcServer := rpcapi.New(cat, coordinator, jobQueue)
	grpcServer, err := rpcapi.NewGRPCServer(cfg.GRPCPort, rpcServer, authenticator)
	if err != nil {
		log.Fatalf("failed to build grpc server: %v", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := grpcServer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	if cfg.Metrics.Enabled {
		metricsServer := newMetricsServer(cfg.Metrics.Port)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metricsServer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	if cfg.Queue.Workers >= 1 {
		worker := pipeline.New(cat, inputStore, outputStore, jobQueue)
		logger.Info("starting update pipeline workers", "count", cfg.Queue.Workers)
		for i := 0; i < cfg.Queue.Workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				worker.Run(ctx)
			}(i)
		}
	} else {
		logger.Info("update pipeline workers disabled (UPDATES_QUEUE_PROCESS < 1)")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("updateservice running", "api_port", cfg.APIPort, "grpc_port", cfg.GRPCPort)

	select {
	case <-sigCh:
		signal.Stop(sigCh)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
	case err := <-errCh:
		logger.Error("server error, initiating shutdown", "error", err)
		cancel()
	}

	wg.Wait()
	logger.Info("updateservice stopped")
}
