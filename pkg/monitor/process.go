package monitor

import (
	"context"
	"encoding/base64"

	"github.com/framewatch/framewatch/pkg/diff"
)

// processLoop drains the frame buffer until capture has stopped and the
// buffer is empty, or ctx (the drain bound) is cancelled. Frames are
// processed strictly in capture order.
func (s *Session) processLoop(ctx context.Context, captureDone <-chan struct{}) {
	logger := s.logger.With("loop", "process")

	for {
		frame, ok := s.buffer.Dequeue(dequeueWait)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-captureDone:
				if s.buffer.Len() == 0 {
					logger.Debug("buffer drained", "processed", s.framesProcessed.Load())
					return
				}
			default:
			}
			continue
		}

		if ctx.Err() != nil {
			// Past the drain bound: discard without processing.
			return
		}

		s.process(ctx, frame)
	}
}

// process runs the two-stage pipeline on one frame: cheap pixel diff with
// region merging, then vision analysis only when warranted.
func (s *Session) process(ctx context.Context, frame *Frame) {
	logger := s.logger.With("loop", "process")
	bootstrap := s.prev == nil

	change, candidates, err := diff.Diff(s.prev, frame.JPEG, diff.Options{
		Threshold: s.cfg.DiffThreshold,
		GridSize:  s.cfg.GridSize,
		Scale:     s.cfg.Scale,
	})
	if err != nil {
		// Treated as a zero-change frame; the session carries on.
		logger.Warn("diff computation failed", "seq", frame.Seq, "err", err)
		change, candidates = 0, nil
	}

	regions := diff.Merge(candidates, s.cfg.MinRegionSize)

	result := FrameResult{
		Frame:         frame.Seq,
		Timestamp:     frame.CapturedAt,
		ChangePercent: change,
		Regions:       len(regions),
	}

	needsAnalysis := s.cfg.AIEnabled &&
		change >= s.cfg.MinChangePercent &&
		len(regions) > 0

	switch {
	case needsAnalysis:
		analyses := s.analyzer.AnalyzeRegions(ctx, frame.JPEG, regions)
		result.Type = ResultChange
		result.Analysis = summarize(analyses)
		result.RegionDetails = analyses
		if s.cfg.SaveFrames {
			result.ImageBase64 = base64.StdEncoding.EncodeToString(frame.JPEG)
		}

		s.adaptive.RecordChange()
		s.emit(result, true)
		if s.OnFrame != nil {
			s.OnFrame(frame.JPEG)
		}

		logger.Info("change detected",
			"seq", frame.Seq,
			"change_percent", change,
			"regions", len(regions),
		)

	case bootstrap:
		// First frame of the session: always a change, no baseline to
		// diff against and no regions to analyze.
		result.Type = ResultChange
		s.adaptive.RecordStable()
		s.emit(result, true)

	default:
		result.Type = ResultStable
		s.adaptive.RecordStable()
		s.emit(result, s.cfg.SaveAllFrames)
	}

	s.prev = frame.JPEG
	s.framesProcessed.Add(1)
}
