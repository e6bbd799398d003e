// Package source provides frame acquisition from video sources. A source
// is asked for one frame at a time; the monitor core decides when to ask.
package source

import "context"

// Source produces a single JPEG-encoded frame on demand. Capture may
// fail or time out; the capture loop treats failures as skipped cycles.
type Source interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Func adapts a plain function to a Source. Used in tests and for
// synthetic sources.
type Func func(ctx context.Context) ([]byte, error)

// Capture implements Source.
func (f Func) Capture(ctx context.Context) ([]byte, error) {
	return f(ctx)
}
