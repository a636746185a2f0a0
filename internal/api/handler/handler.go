package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/screenshot-service/internal/domain"
)

// JobService is the intake service used by the handlers
type JobService interface {
	Submit(ctx context.Context, sourceURI string) (string, error)
	GetStatus(ctx context.Context, jobID string) (*domain.Job, error)
	Ping(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Service     JobService
	ServiceName string
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger  *slog.Logger
	service JobService
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:  deps.Logger,
		service: deps.Service,
	}
}
