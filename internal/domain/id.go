package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NewJobID returns a time-ordered unique job identifier (UUIDv7)
func NewJobID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}
	return id.String(), nil
}

// ValidateJobID checks that id is a well-formed job identifier
func ValidateJobID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: job id is required", ErrInvalidRequest)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: job id must be a valid UUID", ErrInvalidRequest)
	}
	return nil
}
