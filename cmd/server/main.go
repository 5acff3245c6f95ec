package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/lotwise-backend/internal/adapter/grpc"
	"github.com/simaogato/lotwise-backend/internal/adapter/scheduler"
	"github.com/simaogato/lotwise-backend/internal/app"
	"github.com/simaogato/lotwise-backend/internal/config"
	"github.com/simaogato/lotwise-backend/internal/logger"
)

const snapshotTimeout = 2 * time.Minute

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	// 2. Storage, quotes and the in-memory ledger
	ctx := context.Background()
	service, store, err := app.NewPortfolio(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to initialize portfolio")
	}
	defer store.Close()
	log.Info().
		Str("driver", cfg.DBDriver).
		Str("quotes", cfg.QuoteSource).
		Int("lots", len(service.Lots(ctx, true))).
		Msg("Portfolio loaded")

	// 3. Scheduled snapshots
	sched := scheduler.New(log, snapshotTimeout)
	if cfg.SnapshotCron != "" {
		job := &scheduler.SnapshotJob{Recorder: service, Log: log}
		if err := sched.AddJob(cfg.SnapshotCron, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.SnapshotCron).Msg("Invalid snapshot schedule")
		}
	}
	sched.Start()

	// 4. gRPC server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)
	grpcadapter.RegisterLotwiseServiceServer(grpcServer, grpcadapter.NewServer(service))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr()).Msg("Failed to listen")
	}

	go func() {
		log.Info().Str("addr", cfg.GRPCAddr()).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(log, grpcServer, healthServer, sched)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(log zerolog.Logger, grpcServer *grpclib.Server, healthServer *health.Server, sched *scheduler.Scheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	healthServer.Shutdown()
	sched.Stop()
	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")
}
