package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/screenshot-service/internal/api/dto"
	"github.com/cuongbtq/screenshot-service/internal/domain"
	"github.com/gin-gonic/gin"
)

const missingURIMessage = "Expected body parameter `uri` with URI of page to screenshot"

// CreateJob handles POST /job
// Submits a URI to be captured and returns the new job id
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.String(http.StatusBadRequest, missingURIMessage)
		return
	}

	jobID, err := h.service.Submit(c.Request.Context(), req.URI)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.String(http.StatusBadRequest, missingURIMessage)
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateJobResponse{ID: jobID})
}

// GetJob handles GET /job/:id
// Returns the current record of a job
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("id")

	job, err := h.service.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.JobDTO{
		ID:        job.ID,
		Status:    string(job.Status),
		SourceURI: job.SourceURI,
		ResultURI: job.ResultURI,
		Error:     job.Error,
	})
}

// writeError maps service errors onto HTTP responses. An unknown id and a
// malformed id are both client errors and look the same to the caller.
func (h *JobHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidRequest):
		c.String(http.StatusBadRequest, "Not Found")
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrQueueUnavailable):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable",
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
