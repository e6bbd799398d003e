// Package vision provides clients for remote vision models that turn an
// image crop plus a prompt into descriptive text.
package vision

import "context"

// Request describes one analysis call to a vision backend.
type Request struct {
	Model  string // backend-specific model name, e.g. "llava:13b"
	Prompt string
	Image  []byte // JPEG bytes
}

// Backend is a remote vision model. Implementations must honor ctx
// cancellation and deadlines; callers bound every Describe with the
// configured analysis timeout.
type Backend interface {
	// Describe returns descriptive text for the image.
	Describe(ctx context.Context, req Request) (string, error)

	// Name identifies the backend for logging.
	Name() string
}
