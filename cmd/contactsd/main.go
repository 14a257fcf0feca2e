package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/contacts-extractor/constants"
	"github.com/joseph-ayodele/contacts-extractor/internal/common"
	"github.com/joseph-ayodele/contacts-extractor/internal/core"
	"github.com/joseph-ayodele/contacts-extractor/internal/core/async"
	"github.com/joseph-ayodele/contacts-extractor/internal/export"
	"github.com/joseph-ayodele/contacts-extractor/internal/ingest"
	"github.com/joseph-ayodele/contacts-extractor/internal/repository"
	"github.com/joseph-ayodele/contacts-extractor/internal/server"
)

func main() {
	watchDir := flag.String("watch", "", "directory to watch for new card files (optional)")
	origins := flag.String("cors-origins", "", "comma-separated origins allowed to call the HTTP API")
	flag.Parse()

	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.ConnectDB(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open run store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	processor, err := core.NewProcessorFromConfig(cfg, store, logger)
	if err != nil {
		logger.Error("failed to build processor", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Extract.QueueWorkers),
		async.WithQueueSize(256),
		async.WithProcessTimeout(cfg.Extract.JobTimeout),
	)

	// gRPC
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	server.RegisterContactExtractorServer(grpcServer, server.NewContactService(processor, store, queue, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	// HTTP
	httpCfg := server.HTTPConfig{UploadDir: filepath.Join(cfg.Output.WorkDir, "uploads"), RequestTimeout: cfg.Extract.JobTimeout}
	if *origins != "" {
		httpCfg.AllowedOrigins = strings.Split(*origins, ",")
	}
	handler := server.NewHTTPHandler(processor, export.NewService(store, logger), store, store, httpCfg, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if *watchDir != "" {
		if err := watch(ctx, *watchDir, store, queue, logger); err != nil {
			logger.Error("failed to start watcher", "dir", *watchDir, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("contactsd listening", "grpc_addr", cfg.Server.GRPCAddr, "http_addr", cfg.Server.HTTPAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	queue.Shutdown(shutdownCtx)
}

// watch queues every new card file that appears under dir. Files whose content
// was already processed successfully are skipped.
func watch(ctx context.Context, dir string, runs repository.RunRepository, queue async.Queue, logger *slog.Logger) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    time.Second,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	ingestor := ingest.NewFSIngestor(runs, logger)

	go func() {
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					return
				}
				res, err := ingestor.IngestPath(ctx, p)
				if err != nil {
					logger.Warn("ingest failed", "path", p, "error", err)
					continue
				}
				if res.PreviousStatus == string(constants.RunStatusParsedOK) {
					logger.Info("skipping already processed file", "path", p, "previous_run_id", res.PreviousRunID)
					continue
				}
				if err := queue.Enqueue(ctx, async.Job{Path: p, SubmittedAt: time.Now()}); err != nil {
					logger.Warn("enqueue failed", "path", p, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					return
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	}()
	logger.Info("watching for card files", "dir", dir)
	return nil
}
