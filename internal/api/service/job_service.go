package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
	"github.com/cuongbtq/screenshot-service/internal/queue"
	"github.com/cuongbtq/screenshot-service/internal/storage"
)

// Config holds the collaborators of the intake service
type Config struct {
	Logger    *slog.Logger
	Store     storage.JobStore
	Publisher queue.Publisher
	// NewID defaults to domain.NewJobID
	NewID func() (string, error)
	// Now defaults to time.Now
	Now func() time.Time
}

// JobService accepts capture submissions and answers status queries.
// It holds no state between calls.
type JobService struct {
	logger    *slog.Logger
	store     storage.JobStore
	publisher queue.Publisher
	newID     func() (string, error)
	now       func() time.Time
}

// NewJobService creates a new JobService instance
func NewJobService(cfg *Config) *JobService {
	s := &JobService{
		logger:    cfg.Logger,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		newID:     cfg.NewID,
		now:       cfg.Now,
	}
	if s.newID == nil {
		s.newID = domain.NewJobID
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit records a new job and dispatches it to the workers.
// The store write completes before the message is sent so a worker never
// dequeues a job it cannot read. If the send fails the record stays behind
// in submitted with no message.
func (s *JobService) Submit(ctx context.Context, sourceURI string) (string, error) {
	sourceURI = strings.TrimSpace(sourceURI)
	if sourceURI == "" {
		return "", fmt.Errorf("%w: uri is required", domain.ErrInvalidRequest)
	}

	jobID, err := s.newID()
	if err != nil {
		return "", err
	}

	job := domain.NewJob(jobID, sourceURI, s.now())

	if err := s.store.Create(ctx, job); err != nil {
		s.logger.Error("Failed to create job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if err := s.publisher.Publish(ctx, domain.NewDispatchMessage(job)); err != nil {
		s.logger.Warn("Failed to enqueue job - job left in submitted without dispatch",
			slog.String("job_id", jobID),
			slog.String("source_uri", sourceURI),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	s.logger.Info("Job submitted",
		slog.String("job_id", jobID),
		slog.String("source_uri", sourceURI),
	)

	return jobID, nil
}

// GetStatus returns the current record of a job
func (s *JobService) GetStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	if err := domain.ValidateJobID(jobID); err != nil {
		return nil, err
	}

	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return job, nil
}

// Ping reports whether the job store is reachable
func (s *JobService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
