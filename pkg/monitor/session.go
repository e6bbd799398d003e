package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/framewatch/framewatch/internal/log"
	"github.com/framewatch/framewatch/pkg/source"
	"github.com/framewatch/framewatch/pkg/vision"
)

// Session orchestrates one monitoring run: it owns the frame buffer, the
// adaptive interval state and the result timeline, and runs the capture
// and processing loops as its two concurrent units.
type Session struct {
	id       string
	cfg      Config
	src      source.Source
	buffer   *FrameBuffer
	adaptive *AdaptiveController
	analyzer *RegionAnalyzer
	logger   *slog.Logger

	// OnResult, when set before Run, receives every frame result in
	// processing order, including stable results the timeline does not
	// retain. Called from the processing loop.
	OnResult func(FrameResult)

	// OnFrame, when set before Run, receives the JPEG bytes of every
	// change frame. Called from the processing loop.
	OnFrame func([]byte)

	framesCaptured  atomic.Uint64
	framesProcessed atomic.Uint64

	mu          sync.Mutex
	timeline    []FrameResult
	significant int

	// prev is the last processed frame; only the processing loop
	// touches it.
	prev []byte
}

// dequeueWait bounds one Dequeue so the processing loop can notice
// session termination between frames.
const dequeueWait = 1 * time.Second

// NewSession validates the config and assembles a session. Construction
// fails fast on invalid configuration; everything after this degrades
// gracefully instead of failing the session.
func NewSession(cfg Config, src source.Source, backend vision.Backend) (*Session, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid monitor config: %s", strings.Join(errs, "; "))
	}
	if src == nil {
		return nil, fmt.Errorf("frame source is required")
	}
	if cfg.AIEnabled && backend == nil {
		return nil, fmt.Errorf("vision backend is required when AI analysis is enabled")
	}

	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		src:      src,
		buffer:   NewFrameBuffer(cfg.BufferSize),
		adaptive: NewAdaptiveController(cfg),
		logger:   log.With("component", "session"),
	}
	if cfg.AIEnabled {
		s.analyzer = NewRegionAnalyzer(cfg, backend)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns the immutable session configuration.
func (s *Session) Config() Config { return s.cfg }

// Run executes the session until the configured duration elapses or ctx
// is cancelled, whichever comes first, then drains the buffer (bounded by
// DrainTimeout) and returns the aggregated report. Run blocks; it is safe
// to inspect the session from other goroutines while it runs.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	runCtx, cancelRun := context.WithTimeout(ctx, s.cfg.Duration)
	defer cancelRun()

	s.logger.Info("session started",
		"id", s.id,
		"duration", s.cfg.Duration,
		"buffer_size", s.cfg.BufferSize,
		"adaptive", s.cfg.AdaptiveInterval,
		"ai", s.cfg.AIEnabled,
	)

	captureDone := make(chan struct{})
	go func() {
		defer close(captureDone)
		s.captureLoop(runCtx)
	}()

	// The processing loop outlives capture so queued frames still get
	// processed; drainCtx puts a bound on that tail.
	drainCtx, cancelDrain := context.WithCancel(context.Background())
	defer cancelDrain()

	processDone := make(chan struct{})
	go func() {
		defer close(processDone)
		s.processLoop(drainCtx, captureDone)
	}()

	<-captureDone

	select {
	case <-processDone:
	case <-time.After(s.cfg.DrainTimeout):
		s.logger.Warn("drain timeout, discarding queued frames", "queued", s.buffer.Len())
		cancelDrain()
		<-processDone
	}

	report := s.report()
	s.logger.Info("session finished",
		"id", s.id,
		"frames_captured", report.FramesCaptured,
		"frames_processed", report.FramesProcessed,
		"significant_changes", report.SignificantChanges,
		"buffer_overflows", report.BufferOverflows,
	)
	return report, nil
}

// BufferStatus returns a snapshot of the pipeline state.
func (s *Session) BufferStatus() BufferStatus {
	return BufferStatus{
		Capacity:        s.buffer.Cap(),
		Queued:          s.buffer.Len(),
		Full:            s.buffer.Len() >= s.buffer.Cap(),
		CurrentInterval: s.adaptive.Interval().Seconds(),
		ActivityScore:   s.adaptive.ActivityScore(),
		FramesCaptured:  s.framesCaptured.Load(),
		FramesProcessed: s.framesProcessed.Load(),
		BufferOverflows: s.buffer.Overflows(),
	}
}

// Timeline returns a copy of the accumulated results so far.
func (s *Session) Timeline() []FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FrameResult, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// emit delivers a result to the callback and, when keep is set, appends
// it to the bounded timeline.
func (s *Session) emit(result FrameResult, keep bool) {
	if keep {
		s.mu.Lock()
		if s.cfg.MaxTimeline > 0 && len(s.timeline) >= s.cfg.MaxTimeline {
			s.timeline = s.timeline[1:]
		}
		s.timeline = append(s.timeline, result)
		if result.Type == ResultChange {
			s.significant++
		}
		s.mu.Unlock()
	}

	if s.OnResult != nil {
		s.OnResult(result)
	}
}

func (s *Session) report() *Report {
	s.mu.Lock()
	timeline := make([]FrameResult, len(s.timeline))
	copy(timeline, s.timeline)
	significant := s.significant
	s.mu.Unlock()

	mode := "monitor"
	if !s.cfg.AIEnabled {
		mode = "watch"
	}

	return &Report{
		SessionID:          s.id,
		Success:            true,
		Source:             s.cfg.Source,
		Mode:               mode,
		Timeline:           timeline,
		SignificantChanges: significant,
		FramesCaptured:     s.framesCaptured.Load(),
		FramesProcessed:    s.framesProcessed.Load(),
		BufferOverflows:    s.buffer.Overflows(),
		Zones:              s.cfg.Zones,
	}
}
