// Package capture produces the artifact for a source URI.
package capture

import (
	"context"
)

// Result is a captured artifact ready to be stored
type Result struct {
	Data        []byte
	Extension   string
	ContentType string
}

// Capturer captures a page
type Capturer interface {
	Capture(ctx context.Context, uri string) (*Result, error)
}

// CapturerFunc adapts a function to the Capturer interface
type CapturerFunc func(ctx context.Context, uri string) (*Result, error)

// Capture calls f
func (f CapturerFunc) Capture(ctx context.Context, uri string) (*Result, error) {
	return f(ctx, uri)
}
