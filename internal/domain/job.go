package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a screenshot job
type Status string

// Job status constants
const (
	JobStatusSubmitted  Status = "submitted"
	JobStatusProcessing Status = "processing"
	JobStatusCompleted  Status = "completed"
	JobStatusFailed     Status = "failed"
)

// transitions lists the allowed forward moves of the status state machine.
// Terminal states have no entry.
var transitions = map[Status][]Status{
	JobStatusSubmitted:  {JobStatusProcessing},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed},
}

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	switch s {
	case JobStatusSubmitted, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s
func (s Status) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether the state machine allows from -> to
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job is the durable record of a single capture request
type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	SourceURI string    `json:"sourceUri"`
	ResultURI string    `json:"resultUri,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// NewJob returns a freshly submitted job
func NewJob(id, sourceURI string, now time.Time) *Job {
	return &Job{
		ID:        id,
		Status:    JobStatusSubmitted,
		SourceURI: sourceURI,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Outcome carries the fields written together with a status change.
// ResultURI goes with completed, Error goes with failed.
type Outcome struct {
	ResultURI string
	Error     string
}

// Validate checks that the outcome matches the target status
func (o Outcome) Validate(to Status) error {
	switch to {
	case JobStatusCompleted:
		if o.ResultURI == "" || o.Error != "" {
			return fmt.Errorf("%w: completed requires a result uri and no error", ErrInvalidTransition)
		}
	case JobStatusFailed:
		if o.Error == "" || o.ResultURI != "" {
			return fmt.Errorf("%w: failed requires an error and no result uri", ErrInvalidTransition)
		}
	default:
		if o.ResultURI != "" || o.Error != "" {
			return fmt.Errorf("%w: %s carries no outcome", ErrInvalidTransition, to)
		}
	}
	return nil
}
