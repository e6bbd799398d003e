package monitor

import (
	"context"
	"time"
)

// captureLoop requests frames at the current adaptive interval and
// enqueues them without ever blocking on the processing side. Capture
// failures are skipped cycles, not session errors.
func (s *Session) captureLoop(ctx context.Context) {
	logger := s.logger.With("loop", "capture")
	var seq uint64

	for {
		interval := s.adaptive.Interval()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug("capture loop stopped", "frames", seq)
			return
		case <-timer.C:
		}

		captureCtx, cancel := context.WithTimeout(ctx, s.cfg.CaptureTimeout)
		jpeg, err := s.src.Capture(captureCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("frame capture failed", "err", err)
			continue
		}

		frame := &Frame{
			Seq:        seq,
			CapturedAt: time.Now(),
			JPEG:       jpeg,
		}
		seq++
		s.framesCaptured.Add(1)

		if !s.buffer.Enqueue(frame) {
			logger.Warn("frame buffer full, frame dropped",
				"seq", frame.Seq,
				"overflows", s.buffer.Overflows(),
			)
		}
	}
}
