// Package reconciler re-dispatches jobs left in submitted without a queue
// message, which happens when intake's publish fails after its store write.
//
// Re-dispatch can duplicate a message that is merely slow; workers discard
// duplicates, so that is harmless.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
	"github.com/cuongbtq/screenshot-service/internal/queue"
	"github.com/cuongbtq/screenshot-service/internal/storage"
)

// Config holds reconciler settings
type Config struct {
	Logger     *slog.Logger
	Store      storage.JobStore
	Publisher  queue.Publisher
	Interval   time.Duration
	StaleAfter time.Duration
	BatchSize  int
	Now        func() time.Time
}

// Reconciler periodically sweeps for orphaned submitted jobs
type Reconciler struct {
	logger     *slog.Logger
	store      storage.JobStore
	publisher  queue.Publisher
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
}

// New creates a new Reconciler
func New(cfg *Config) *Reconciler {
	r := &Reconciler{
		logger:     cfg.Logger,
		store:      cfg.Store,
		publisher:  cfg.Publisher,
		interval:   cfg.Interval,
		staleAfter: cfg.StaleAfter,
		batchSize:  cfg.BatchSize,
		now:        cfg.Now,
	}
	if r.interval <= 0 {
		r.interval = time.Minute
	}
	if r.staleAfter <= 0 {
		r.staleAfter = 10 * time.Minute
	}
	if r.batchSize <= 0 {
		r.batchSize = 100
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run sweeps every interval until ctx is canceled
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("Reconciler started",
		slog.Duration("interval", r.interval),
		slog.Duration("stale_after", r.staleAfter),
		slog.Int("batch_size", r.batchSize),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("Reconcile sweep failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Sweep re-publishes one batch of stale submitted jobs and returns how many were sent
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.staleAfter)

	jobs, err := r.store.ListStale(ctx, domain.JobStatusSubmitted, cutoff, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	sent := 0
	for _, job := range jobs {
		if err := r.publisher.Publish(ctx, domain.NewDispatchMessage(job)); err != nil {
			return sent, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
		}
		sent++

		r.logger.Info("Re-dispatched orphaned job",
			slog.String("job_id", job.ID),
			slog.Time("created_at", job.CreatedAt),
		)
	}

	if sent > 0 {
		r.logger.Info("Reconcile sweep finished",
			slog.Int("redispatched", sent),
		)
	}

	return sent, nil
}
