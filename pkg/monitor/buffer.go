package monitor

import (
	"sync/atomic"
	"time"
)

// Frame is one captured snapshot of the video source.
type Frame struct {
	Seq        uint64
	CapturedAt time.Time
	JPEG       []byte
}

// FrameBuffer is a bounded FIFO queue between the capture loop (single
// producer) and the processing loop (single consumer). Enqueue never
// blocks: when the buffer is full the frame is dropped and counted. This
// is the backpressure policy that keeps capture decoupled from the much
// slower analysis path.
type FrameBuffer struct {
	ch        chan *Frame
	enqueued  atomic.Uint64
	overflows atomic.Uint64
}

// NewFrameBuffer creates a buffer holding at most capacity frames.
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameBuffer{ch: make(chan *Frame, capacity)}
}

// Enqueue adds a frame without blocking. Returns false when the buffer is
// full; the frame is dropped and the overflow counter incremented.
func (b *FrameBuffer) Enqueue(f *Frame) bool {
	select {
	case b.ch <- f:
		b.enqueued.Add(1)
		return true
	default:
		b.overflows.Add(1)
		return false
	}
}

// Dequeue waits up to timeout for a frame. The second return value is
// false on timeout so the consumer can check for session termination and
// try again.
func (b *FrameBuffer) Dequeue(timeout time.Duration) (*Frame, bool) {
	select {
	case f := <-b.ch:
		return f, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f := <-b.ch:
		return f, true
	case <-timer.C:
		return nil, false
	}
}

// Len returns the number of queued frames.
func (b *FrameBuffer) Len() int { return len(b.ch) }

// Cap returns the buffer capacity.
func (b *FrameBuffer) Cap() int { return cap(b.ch) }

// Enqueued returns how many frames were accepted.
func (b *FrameBuffer) Enqueued() uint64 { return b.enqueued.Load() }

// Overflows returns how many frames were dropped because the buffer was
// full.
func (b *FrameBuffer) Overflows() uint64 { return b.overflows.Load() }
