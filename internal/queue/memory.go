package queue

import (
	"context"
	"sync"

	"github.com/cuongbtq/screenshot-service/internal/domain"
)

// MemoryQueue is an in-memory Publisher that records every message.
// Used as a substitutable fake for the work queue.
type MemoryQueue struct {
	mu       sync.Mutex
	messages []domain.DispatchMessage

	// Err, when set, is returned by Publish and nothing is recorded
	Err error
}

// NewMemoryQueue returns an empty MemoryQueue
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Publish records msg
func (q *MemoryQueue) Publish(ctx context.Context, msg domain.DispatchMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.Err != nil {
		return q.Err
	}
	q.messages = append(q.messages, msg)
	return nil
}

// Messages returns a copy of the published messages in order
func (q *MemoryQueue) Messages() []domain.DispatchMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.DispatchMessage, len(q.messages))
	copy(out, q.messages)
	return out
}

// Len returns the number of published messages
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
