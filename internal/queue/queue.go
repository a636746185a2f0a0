package queue

import (
	"context"
	"fmt"

	"github.com/cuongbtq/screenshot-service/internal/domain"
)

// ContentType is the content type of dispatch message bodies
const ContentType = "application/json"

// Publisher sends dispatch messages to the work queue. Publish returns only
// once the queue has durably accepted the message.
type Publisher interface {
	Publish(ctx context.Context, msg domain.DispatchMessage) error
}

// Sender is the transport a Publisher delegates to
type Sender interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// RetrySender is a transport that can retry a send with backoff
type RetrySender interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// SenderPublisher encodes dispatch messages and sends them once, no retry
type SenderPublisher struct {
	sender Sender
}

// NewPublisher wraps a transport, typically *rabbitmq.Client
func NewPublisher(sender Sender) *SenderPublisher {
	return &SenderPublisher{sender: sender}
}

// Publish encodes and sends msg
func (p *SenderPublisher) Publish(ctx context.Context, msg domain.DispatchMessage) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := p.sender.Publish(ctx, body, ContentType); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", msg.ID, err)
	}
	return nil
}

// RetryingPublisher encodes dispatch messages and sends them with transport retries
type RetryingPublisher struct {
	sender RetrySender
}

// NewRetryingPublisher wraps a retrying transport
func NewRetryingPublisher(sender RetrySender) *RetryingPublisher {
	return &RetryingPublisher{sender: sender}
}

// Publish encodes and sends msg, retrying transient failures
func (p *RetryingPublisher) Publish(ctx context.Context, msg domain.DispatchMessage) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := p.sender.PublishWithRetry(ctx, body, ContentType); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", msg.ID, err)
	}
	return nil
}
