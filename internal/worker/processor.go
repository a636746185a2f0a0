package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
)

// processJob drives one job through the state machine.
//
// The stored status is read before anything is mutated: a job that is no
// longer submitted belongs to another delivery and the message is discarded.
// The claim itself is a conditional update, so two workers racing on the same
// message cannot both proceed.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	job, err := w.storage.Get(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.logger.Warn("Dispatch message for unknown job",
				slog.String("job_id", msg.ID),
			)
			return fmt.Errorf("job %s: %w", msg.ID, err)
		}
		return domain.NewRetryableError(fmt.Errorf("failed to read job: %w", err))
	}

	if job.Status != domain.JobStatusSubmitted {
		w.logger.Info("Discarding duplicate delivery",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.Status)),
		)
		return fmt.Errorf("%w: job %s is %s", domain.ErrDuplicateDelivery, job.ID, job.Status)
	}

	if msg.URI != "" && msg.URI != job.SourceURI {
		w.logger.Warn("Dispatch message uri differs from job record, using record",
			slog.String("job_id", job.ID),
			slog.String("message_uri", msg.URI),
			slog.String("source_uri", job.SourceURI),
		)
	}

	if _, err := w.storage.Transition(ctx, job.ID, domain.JobStatusSubmitted, domain.JobStatusProcessing, domain.Outcome{}); err != nil {
		if errors.Is(err, domain.ErrPreconditionFailed) {
			w.logger.Info("Job claimed by another worker, discarding",
				slog.String("job_id", job.ID),
			)
			return fmt.Errorf("%w: %v", domain.ErrDuplicateDelivery, err)
		}
		return domain.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	resultURI, captureErr := w.captureJob(jobCtx, job)
	if captureErr != nil {
		w.logger.Error("Job capture failed",
			slog.String("job_id", job.ID),
			slog.String("source_uri", job.SourceURI),
			slog.String("error", captureErr.Error()),
		)

		outcome := domain.Outcome{Error: captureErr.Error()}
		if err := w.finishJob(ctx, job.ID, domain.JobStatusFailed, outcome); err != nil {
			return fmt.Errorf("failed to mark job failed: %w", err)
		}
		return nil
	}

	outcome := domain.Outcome{ResultURI: resultURI}
	if err := w.finishJob(ctx, job.ID, domain.JobStatusCompleted, outcome); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	w.logger.Info("Job completed successfully",
		slog.String("job_id", job.ID),
		slog.String("result_uri", resultURI),
	)

	return nil
}

// finishJob writes the terminal status, retrying transient store errors with
// backoff. Redeliveries discard processing jobs, so a write lost here leaves
// the job in processing. Each attempt is guarded by the processing precondition.
func (w *Worker) finishJob(ctx context.Context, jobID string, to domain.Status, outcome domain.Outcome) error {
	attempts := w.captureRetries + 1
	delay := w.retryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err := w.storage.Transition(ctx, jobID, domain.JobStatusProcessing, to, outcome)
		if err == nil {
			return nil
		}
		lastErr = err

		if isFinalStoreError(err) || attempt == attempts {
			break
		}

		w.logger.Warn("Failed to write terminal status, retrying...",
			slog.String("job_id", jobID),
			slog.String("status", string(to)),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("retry_after", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("terminal status write canceled: %w", lastErr)
		}
		delay *= 2
	}

	return lastErr
}

// isFinalStoreError reports errors that a repeated write cannot fix
func isFinalStoreError(err error) bool {
	return errors.Is(err, domain.ErrPreconditionFailed) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidTransition)
}

// captureJob captures the page and stores the artifact, retrying the pair
// up to captureRetries times
func (w *Worker) captureJob(ctx context.Context, job *domain.Job) (string, error) {
	attempts := w.captureRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resultURI, err := w.captureOnce(ctx, job)
		if err == nil {
			return resultURI, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		w.logger.Warn("Capture attempt failed, retrying...",
			slog.String("job_id", job.ID),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("retry_after", w.retryDelay),
			slog.String("error", err.Error()),
		)

		select {
		case <-time.After(w.retryDelay):
		case <-ctx.Done():
			return "", fmt.Errorf("capture canceled after %d attempts: %w", attempt, lastErr)
		}
	}

	return "", fmt.Errorf("capture failed after %d attempts: %w", attempts, lastErr)
}

func (w *Worker) captureOnce(ctx context.Context, job *domain.Job) (string, error) {
	result, err := w.capturer.Capture(ctx, job.SourceURI)
	if err != nil {
		return "", err
	}

	resultURI, err := w.artifacts.Put(ctx, job.ID, result)
	if err != nil {
		return "", err
	}
	return resultURI, nil
}
