package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"facturas/internal/amqp"
	"facturas/internal/config"
	applog "facturas/internal/log"
	"facturas/internal/sheets"
	gsheet "facturas/internal/sheets/google"
	mem "facturas/internal/sheets/memory"
	"facturas/internal/storage"
	"facturas/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting facturas-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var appender sheets.LedgerAppender
	switch cfg.ExportBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = cli
		logger.Info("Google Sheets export backend initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		appender = mem.New()
		logger.Info("In-memory export backend initialized", "backend", cfg.ExportBackend)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exportWorker := worker.NewExportWorker(repo, appender, cfg.SyncBatchSize)

	// Process any records that queued up while the worker was down
	logger.Info("Performing startup export check...")
	if err := exportWorker.ProcessPendingRecords(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
		// Keep going, the periodic sweep retries
	}

	go func() {
		handler := func(msg *amqp.RecordChangedMessage) error {
			return exportWorker.HandleRecordChanged(ctx, msg)
		}
		if err := amqpClient.ConsumeRecordChanged(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic sweep catches records whose change message was lost
	go func() {
		if err := exportWorker.Run(ctx, cfg.SyncInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Periodic export sweep failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()

	// Give in-flight exports a moment to finish
	logger.Info("Shutting down worker...")
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
