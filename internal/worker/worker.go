package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
	"github.com/cuongbtq/screenshot-service/internal/storage"
	"github.com/cuongbtq/screenshot-service/internal/worker/artifact"
	"github.com/cuongbtq/screenshot-service/internal/worker/capture"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDeliveriesClosed is returned by Start when the broker stops delivering
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Broker is the work queue as seen by a consumer
type Broker interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
	Ack(deliveryTag uint64) error
	Nack(deliveryTag uint64, requeue bool) error
}

// Config holds worker configuration
type Config struct {
	Logger         *slog.Logger
	Store          storage.JobStore
	Broker         Broker
	Capturer       capture.Capturer
	Artifacts      artifact.Store
	WorkerID       string
	Concurrency    int
	JobTimeout     time.Duration
	CaptureRetries int
	RetryDelay     time.Duration
}

// Worker consumes dispatch messages and drives jobs through
// processing to completed or failed
type Worker struct {
	logger         *slog.Logger
	storage        storage.JobStore
	broker         Broker
	capturer       capture.Capturer
	artifacts      artifact.Store
	workerID       string
	concurrency    int
	jobTimeout     time.Duration
	captureRetries int
	retryDelay     time.Duration
	jobsChan       chan *domain.JobMessage
	wg             sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "worker"
	}

	return &Worker{
		logger:         cfg.Logger.With(slog.String("worker_id", workerID)),
		storage:        cfg.Store,
		broker:         cfg.Broker,
		capturer:       cfg.Capturer,
		artifacts:      cfg.Artifacts,
		workerID:       workerID,
		concurrency:    concurrency,
		jobTimeout:     jobTimeout,
		captureRetries: cfg.CaptureRetries,
		retryDelay:     cfg.RetryDelay,
		jobsChan:       make(chan *domain.JobMessage),
	}
}

// Start consumes until ctx is canceled or the broker closes the delivery
// channel. In-flight jobs are allowed to finish before Start returns.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
		slog.Int("capture_retries", w.captureRetries),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)

	err = w.startMessageDispatcher(ctx, deliveries)

	close(w.jobsChan)
	w.wg.Wait()

	w.logger.Info("Worker stopped")
	return err
}
