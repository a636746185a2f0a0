package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
	"github.com/cuongbtq/screenshot-service/shared/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteStorage(t *testing.T) *Storage {
	t.Helper()

	client, err := sqlite.NewClient(&sqlite.Config{Path: sqlite.MemoryPath}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := NewStorage(client.GetDB(), "test_jobs", discardLogger())
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background()))

	return store
}

func jobStores(t *testing.T) map[string]func(t *testing.T) JobStore {
	return map[string]func(t *testing.T) JobStore{
		"sqlite": func(t *testing.T) JobStore { return newSQLiteStorage(t) },
		"memory": func(t *testing.T) JobStore { return NewMemoryStorage() },
	}
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := domain.NewJobID()
	require.NoError(t, err)
	return id
}

func TestJobStore_CreateAndGet(t *testing.T) {
	for name, open := range jobStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			job := domain.NewJob(newID(t), "https://example.com", baseTime)
			require.NoError(t, store.Create(ctx, job))

			got, err := store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, job.ID, got.ID)
			assert.Equal(t, domain.JobStatusSubmitted, got.Status)
			assert.Equal(t, "https://example.com", got.SourceURI)
			assert.Empty(t, got.ResultURI)
			assert.Empty(t, got.Error)
			assert.True(t, baseTime.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)
		})
	}
}

func TestJobStore_GetNotFound(t *testing.T) {
	for name, open := range jobStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			_, err := store.Get(context.Background(), newID(t))
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestJobStore_CreateDuplicate(t *testing.T) {
	for name, open := range jobStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			job := domain.NewJob(newID(t), "https://example.com", baseTime)
			require.NoError(t, store.Create(ctx, job))
			assert.Error(t, store.Create(ctx, job))
		})
	}
}

func TestJobStore_TransitionLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		final     domain.Status
		outcome   domain.Outcome
		wantURI   string
		wantError string
	}{
		{
			name:    "completed",
			final:   domain.JobStatusCompleted,
			outcome: domain.Outcome{ResultURI: "file:///data/a.html"},
			wantURI: "file:///data/a.html",
		},
		{
			name:      "failed",
			final:     domain.JobStatusFailed,
			outcome:   domain.Outcome{Error: "navigation timeout"},
			wantError: "navigation timeout",
		},
	}

	for name, open := range jobStores(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				store := open(t)
				ctx := context.Background()

				job := domain.NewJob(newID(t), "https://example.com", baseTime)
				require.NoError(t, store.Create(ctx, job))

				processing, err := store.Transition(ctx, job.ID, domain.JobStatusSubmitted, domain.JobStatusProcessing, domain.Outcome{})
				require.NoError(t, err)
				assert.Equal(t, domain.JobStatusProcessing, processing.Status)

				done, err := store.Transition(ctx, job.ID, domain.JobStatusProcessing, tt.final, tt.outcome)
				require.NoError(t, err)
				assert.Equal(t, tt.final, done.Status)
				assert.Equal(t, tt.wantURI, done.ResultURI)
				assert.Equal(t, tt.wantError, done.Error)

				got, err := store.Get(ctx, job.ID)
				require.NoError(t, err)
				assert.Equal(t, tt.final, got.Status)
				assert.Equal(t, "https://example.com", got.SourceURI)
			})
		}
	}
}

func TestJobStore_TransitionPreconditionFailed(t *testing.T) {
	for name, open := range jobStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			job := domain.NewJob(newID(t), "https://example.com", baseTime)
			require.NoError(t, store.Create(ctx, job))

			_, err := store.Transition(ctx, job.ID, domain.JobStatusSubmitted, domain.JobStatusProcessing, domain.Outcome{})
			require.NoError(t, err)

			// A second claim of the same job must lose
			_, err = store.Transition(ctx, job.ID, domain.JobStatusSubmitted, domain.JobStatusProcessing, domain.Outcome{})
			assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

			got, err := store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.JobStatusProcessing, got.Status)
		})
	}
}

func TestJobStore_TransitionNotFound(t *testing.T) {
	for name, open := range jobStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			_, err := store.Transition(context.Background(), newID(t), domain.JobStatusSubmitted, domain.JobStatusProcessing, domain.Outcome{})
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestJobStore_TransitionInvalid(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.Status
		to      domain.Status
		outcome domain.Outcome
	}{
		{name: "skip processing", from: domain.JobStatusSubmitted, to: domain.JobStatusCompleted, outcome: domain.Outcome{ResultURI: "file:///a.html"}},
		{name: "leave terminal", from: domain.JobStatusCompleted, to: domain.JobStatusProcessing},
		{name: "backwards", from: domain.JobStatusProcessing, to: domain.JobStatusSubmitted},
		{name: "completed without result", from: domain.JobStatusProcessing, to: domain.JobStatusCompleted},
		{name: "completed with error", from: domain.JobStatusProcessing, to: domain.JobStatusCompleted, outcome: domain.Outcome{ResultURI: "file:///a.html", Error: "boom"}},
		{name: "failed without error", from: domain.JobStatusProcessing, to: domain.JobStatusFailed},
		{name: "claim with outcome", from: domain.JobStatusSubmitted, to: domain.JobStatusProcessing, outcome: domain.Outcome{Error: "early"}},
	}

	for name, open := range jobStores(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				store := open(t)
				ctx := context.Background()

				job := domain.NewJob(newID(t), "https://example.com", baseTime)
				require.NoError(t, store.Create(ctx, job))

				_, err := store.Transition(ctx, job.ID, tt.from, tt.to, tt.outcome)
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)

				got, err := store.Get(ctx, job.ID)
				require.NoError(t, err)
				assert.Equal(t, domain.JobStatusSubmitted, got.Status)
			})
		}
	}
}

func TestJobStore_ListStale(t *testing.T) {
	for name, open := range jobStores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			oldest := domain.NewJob(newID(t), "https://a.example", baseTime.Add(-3*time.Hour))
			older := domain.NewJob(newID(t), "https://b.example", baseTime.Add(-2*time.Hour))
			fresh := domain.NewJob(newID(t), "https://c.example", baseTime)
			claimed := domain.NewJob(newID(t), "https://d.example", baseTime.Add(-4*time.Hour))

			for _, job := range []*domain.Job{fresh, older, claimed, oldest} {
				require.NoError(t, store.Create(ctx, job))
			}
			_, err := store.Transition(ctx, claimed.ID, domain.JobStatusSubmitted, domain.JobStatusProcessing, domain.Outcome{})
			require.NoError(t, err)

			cutoff := baseTime.Add(-time.Hour)

			jobs, err := store.ListStale(ctx, domain.JobStatusSubmitted, cutoff, 10)
			require.NoError(t, err)
			require.Len(t, jobs, 2)
			assert.Equal(t, oldest.ID, jobs[0].ID)
			assert.Equal(t, older.ID, jobs[1].ID)

			limited, err := store.ListStale(ctx, domain.JobStatusSubmitted, cutoff, 1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, oldest.ID, limited[0].ID)
		})
	}
}

func TestNewStorage_TableName(t *testing.T) {
	client, err := sqlite.NewClient(&sqlite.Config{Path: sqlite.MemoryPath}, discardLogger())
	require.NoError(t, err)
	defer client.Close()

	tests := []struct {
		name    string
		table   string
		want    string
		wantErr bool
	}{
		{name: "default", table: "", want: DefaultTable},
		{name: "custom", table: "captures_v2", want: "captures_v2"},
		{name: "injection", table: "jobs; DROP TABLE x", wantErr: true},
		{name: "leading digit", table: "1jobs", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStorage(client.GetDB(), tt.table, discardLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.table)
		})
	}
}

func TestStorage_Ping(t *testing.T) {
	store := newSQLiteStorage(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestStorage_EnsureSchemaIdempotent(t *testing.T) {
	store := newSQLiteStorage(t)
	assert.NoError(t, store.EnsureSchema(context.Background()))
}
