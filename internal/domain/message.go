package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DispatchMessage is the queue payload instructing a worker to start a job.
// It points into the job store and never carries job state.
type DispatchMessage struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// NewDispatchMessage builds the message for a job
func NewDispatchMessage(job *Job) DispatchMessage {
	return DispatchMessage{ID: job.ID, URI: job.SourceURI}
}

// Encode serialises the message for the queue
func (m DispatchMessage) Encode() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dispatch message: %w", err)
	}
	return body, nil
}

// DecodeDispatchMessage parses and validates a queue payload
func DecodeDispatchMessage(body []byte) (DispatchMessage, error) {
	var msg DispatchMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return DispatchMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	msg.ID = strings.TrimSpace(msg.ID)
	if err := ValidateJobID(msg.ID); err != nil {
		return DispatchMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	return msg, nil
}

// JobMessage is a decoded dispatch message together with its broker delivery tag
type JobMessage struct {
	DispatchMessage
	DeliveryTag uint64
	Redelivered bool
}
