package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuongbtq/screenshot-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubService struct {
	submitErr error
	getErr    error
}

func (s *stubService) Submit(context.Context, string) (string, error) {
	return "", s.submitErr
}

func (s *stubService) GetStatus(context.Context, string) (*domain.Job, error) {
	return nil, s.getErr
}

func (s *stubService) Ping(context.Context) error {
	return nil
}

func newTestEngine(svc JobService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewJobHandler(&Dependencies{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Service: svc,
	})
	r := gin.New()
	r.POST("/job", h.CreateJob)
	r.GET("/job/:id", h.GetJob)
	return r
}

func TestCreateJob_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "invalid request",
			err:      fmt.Errorf("%w: uri is required", domain.ErrInvalidRequest),
			wantCode: http.StatusBadRequest,
			wantBody: missingURIMessage,
		},
		{
			name:     "store unavailable",
			err:      fmt.Errorf("%w: timeout", domain.ErrStoreUnavailable),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "Service temporarily unavailable",
		},
		{
			name:     "queue unavailable",
			err:      fmt.Errorf("%w: nacked", domain.ErrQueueUnavailable),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "Service temporarily unavailable",
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(&stubService{submitErr: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/job", bytes.NewBufferString(`{"uri":"https://example.com"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestGetJob_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "not found", err: domain.ErrNotFound, wantCode: http.StatusBadRequest, wantBody: "Not Found"},
		{name: "malformed id", err: fmt.Errorf("%w: bad id", domain.ErrInvalidRequest), wantCode: http.StatusBadRequest, wantBody: "Not Found"},
		{name: "store unavailable", err: domain.ErrStoreUnavailable, wantCode: http.StatusServiceUnavailable, wantBody: "Service temporarily unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(&stubService{getErr: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/job/some-id", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusBadRequest {
				assert.Equal(t, tt.wantBody, w.Body.String())
				return
			}
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
