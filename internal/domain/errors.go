package domain

import "errors"

var (
	// ErrInvalidRequest is returned when caller input fails validation
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when no job record exists for an id
	ErrNotFound = errors.New("job not found")

	// ErrStoreUnavailable wraps failures talking to the job store
	ErrStoreUnavailable = errors.New("job store unavailable")

	// ErrQueueUnavailable wraps failures talking to the work queue
	ErrQueueUnavailable = errors.New("work queue unavailable")

	// ErrPreconditionFailed is returned by a conditional update whose expected
	// prior status did not match the stored one
	ErrPreconditionFailed = errors.New("job status precondition failed")

	// ErrInvalidTransition is returned for a status change the state machine forbids
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrDuplicateDelivery marks a dispatch message for a job that has already moved past submitted
	ErrDuplicateDelivery = errors.New("duplicate delivery")

	// ErrInvalidMessage is returned when a dispatch message cannot be decoded
	ErrInvalidMessage = errors.New("invalid dispatch message")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
