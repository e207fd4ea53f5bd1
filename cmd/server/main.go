package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wastetrack/epr/internal/api"
	"github.com/wastetrack/epr/internal/config"
	"github.com/wastetrack/epr/internal/db"
	"github.com/wastetrack/epr/internal/extractor"
	"github.com/wastetrack/epr/internal/logging"
	"github.com/wastetrack/epr/internal/repository"
	"github.com/wastetrack/epr/internal/summarylog"
	"github.com/wastetrack/epr/internal/sync"
	"github.com/wastetrack/epr/internal/uploads"
	"github.com/wastetrack/epr/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := slog.Default()

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	uploadStore, bucket, err := uploads.OpenBlobStore(ctx, cfg.Uploads.BucketURL)
	if err != nil {
		logger.Error("failed to open upload bucket", "error", err)
		os.Exit(1)
	}
	defer func() { _ = bucket.Close() }()

	// Repositories
	summaryLogs := repository.NewSummaryLogRepository(conn.Pool)
	records := repository.NewWasteRecordRepository(conn.Pool)
	balances := repository.NewWasteBalanceRepository(conn.Pool)
	organisations := repository.NewOrganisationRepository(conn.Pool)

	// Pipeline
	ext := extractor.New(uploadStore)
	engine := sync.NewEngine(ext, records, balances, organisations, logger)
	validator := summarylog.NewValidator(summaryLogs, organisations, records, ext, logger)
	submitter := summarylog.NewSubmitter(summaryLogs, engine, logger)

	dispatcher := worker.NewDispatcher(worker.Config{
		Workers:    cfg.Worker.Workers,
		QueueSize:  cfg.Worker.QueueSize,
		JobTimeout: cfg.Worker.JobTimeout,
		MaxRetries: cfg.Worker.MaxRetries,
	}, logger)
	dispatcher.Start(ctx)

	handler := api.NewHandler(summaryLogs, validator, submitter, dispatcher)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	dispatcher.Stop()
	logger.Info("server exited")
}
