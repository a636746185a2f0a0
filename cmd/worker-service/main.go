package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/bootstrap"
	"github.com/cuongbtq/screenshot-service/internal/config"
	"github.com/cuongbtq/screenshot-service/internal/queue"
	"github.com/cuongbtq/screenshot-service/internal/reconciler"
	"github.com/cuongbtq/screenshot-service/internal/worker"
	"github.com/cuongbtq/screenshot-service/internal/worker/artifact"
	"github.com/cuongbtq/screenshot-service/internal/worker/capture"
	"github.com/cuongbtq/screenshot-service/shared/logger"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	bootLogger := logger.NewDefault()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		bootLogger.Info("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath, (*config.Config).ValidateWorkerConfig)
	if err != nil {
		return err
	}

	appLogger, err := bootstrap.InitLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger = appLogger.With(slog.String("service", cfg.App.Name))

	appLogger.Info("Starting worker service",
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.Bool("reconciler", cfg.Reconciler.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, dbCloser, err := bootstrap.InitStorage(ctx, cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer dbCloser.Close()

	rabbitClient, err := bootstrap.InitRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return err
	}
	defer rabbitClient.Close()

	capturer, err := capture.NewHTMLCapturer(&capture.HTMLConfig{
		BrowserPath:  cfg.Capture.BrowserPath,
		Proxy:        cfg.Capture.Proxy,
		Stealth:      cfg.Capture.Stealth,
		BlockAds:     cfg.Capture.BlockAds,
		BlockImages:  cfg.Capture.BlockImages,
		WaitSelector: cfg.Capture.WaitSelector,
		WaitTimeout:  cfg.Capture.WaitTimeout,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize capturer: %w", err)
	}
	defer capturer.Close()

	artifacts, err := artifact.NewFileStore(cfg.Artifacts.Dir, cfg.Artifacts.BaseURI)
	if err != nil {
		return err
	}

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:         appLogger.Logger,
		Store:          store,
		Broker:         rabbitClient,
		Capturer:       capturer,
		Artifacts:      artifacts,
		WorkerID:       workerID(cfg.Worker.ID),
		Concurrency:    cfg.Worker.Concurrency,
		JobTimeout:     cfg.Worker.JobTimeout,
		CaptureRetries: cfg.Worker.CaptureRetries,
		RetryDelay:     cfg.Worker.RetryDelay,
	})

	// A lost broker channel ends Start with ErrDeliveriesClosed and the process
	// exits non-zero; restarts are left to the supervisor.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return workerInstance.Start(gctx)
	})

	if cfg.Reconciler.Enabled {
		rec := reconciler.New(&reconciler.Config{
			Logger:     appLogger.Logger,
			Store:      store,
			Publisher:  queue.NewRetryingPublisher(rabbitClient),
			Interval:   cfg.Reconciler.Interval,
			StaleAfter: cfg.Reconciler.StaleAfter,
			BatchSize:  cfg.Reconciler.BatchSize,
		})
		g.Go(func() error {
			return rec.Run(gctx)
		})
	}

	appLogger.Info("Worker service started successfully")

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			appLogger.Error("Worker error", slog.Any("error", err))
			return err
		}
	case <-gctx.Done():
		appLogger.Info("Shutting down gracefully, waiting for in-flight jobs",
			slog.Duration("timeout", cfg.Worker.ShutdownTimeout),
		)

		select {
		case err := <-done:
			if err != nil {
				appLogger.Error("Worker error", slog.Any("error", err))
				return err
			}
		case <-time.After(cfg.Worker.ShutdownTimeout):
			appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
		}
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// workerID falls back to the host name so deliveries can be traced to a pod
func workerID(configured string) string {
	if configured != "" {
		return configured
	}
	host, err := os.Hostname()
	if err != nil {
		return "worker"
	}
	return host
}
