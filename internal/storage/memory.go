package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
)

// Ensure both implementations satisfy JobStore at compile time.
var (
	_ JobStore = (*Storage)(nil)
	_ JobStore = (*MemoryStorage)(nil)
)

// MemoryStorage is an in-memory JobStore. Safe for concurrent access.
// Intended for unit tests and local runs without a database.
type MemoryStorage struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
	now  func() time.Time

	// PingErr, when set, is returned by Ping
	PingErr error
}

// NewMemoryStorage returns an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		jobs: make(map[string]domain.Job),
		now:  time.Now,
	}
}

// Create stores a copy of job. Creating an existing id is an error.
func (m *MemoryStorage) Create(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("failed to create job: duplicate id %s", job.ID)
	}
	m.jobs[job.ID] = *job
	return nil
}

// Get returns a copy of the stored job
func (m *MemoryStorage) Get(_ context.Context, jobID string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

// Transition applies a conditional status update
func (m *MemoryStorage) Transition(_ context.Context, jobID string, from, to domain.Status, outcome domain.Outcome) (*domain.Job, error) {
	if !domain.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	if err := outcome.Validate(to); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status != from {
		return nil, fmt.Errorf("%w: expected %s, found %s", domain.ErrPreconditionFailed, from, job.Status)
	}

	job.Status = to
	job.ResultURI = outcome.ResultURI
	job.Error = outcome.Error
	job.UpdatedAt = m.now().UTC()
	m.jobs[jobID] = job

	return &job, nil
}

// ListStale returns jobs in status created before olderThan, oldest first
func (m *MemoryStorage) ListStale(_ context.Context, status domain.Status, olderThan time.Time, limit int) ([]*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var jobs []*domain.Job
	for _, job := range m.jobs {
		if job.Status == status && job.CreatedAt.Before(olderThan) {
			j := job
			jobs = append(jobs, &j)
		}
	}

	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].ID < jobs[k].ID
		}
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Ping returns PingErr
func (m *MemoryStorage) Ping(_ context.Context) error {
	return m.PingErr
}

// Len returns the number of stored jobs
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
