package monitor

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"unicode/utf8"

	"gocv.io/x/gocv"

	"github.com/framewatch/framewatch/internal/log"
	"github.com/framewatch/framewatch/pkg/diff"
	"github.com/framewatch/framewatch/pkg/vision"
)

// minCropSize is the smallest acceptable crop dimension; smaller crops
// are upscaled proportionally before analysis when UpscaleRegions is set.
const minCropSize = 400

// RegionAnalyzer extracts bounded crops for changed regions and asks the
// vision backend to describe them.
type RegionAnalyzer struct {
	cfg     Config
	backend vision.Backend
	logger  *slog.Logger
}

// NewRegionAnalyzer creates an analyzer for the session config.
func NewRegionAnalyzer(cfg Config, backend vision.Backend) *RegionAnalyzer {
	return &RegionAnalyzer{
		cfg:     cfg,
		backend: backend,
		logger:  log.With("component", "analyzer"),
	}
}

// AnalyzeRegions analyzes up to MaxRegionsToAnalyze regions of the frame,
// in the order given (callers pass regions sorted by change percent), so
// the number of vision calls per frame is always bounded. A zero limit
// skips analysis entirely. Backend failures are embedded as analysis
// text; only a completely undecodable frame cuts analysis short.
func (a *RegionAnalyzer) AnalyzeRegions(ctx context.Context, frame []byte, regions []diff.Region) []RegionAnalysis {
	limit := len(regions)
	if limit > a.cfg.MaxRegionsToAnalyze {
		limit = a.cfg.MaxRegionsToAnalyze
	}
	if limit <= 0 {
		return nil
	}

	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil || img.Empty() {
		a.logger.Warn("frame decode failed, skipping region analysis", "err", err)
		return nil
	}
	defer img.Close()

	imgW, imgH := img.Cols(), img.Rows()

	analyses := make([]RegionAnalysis, 0, limit)
	for _, region := range regions[:limit] {
		text, err := a.analyzeOne(ctx, img, region)
		if err != nil {
			// Expected, non-fatal: the result still carries the error.
			a.logger.Warn("region analysis failed", "region", region, "err", err)
			text = fmt.Sprintf("analysis failed: %v", err)
		}

		analyses = append(analyses, RegionAnalysis{
			Region:   region,
			Zone:     zoneLabel(a.cfg.Zones, region, imgW, imgH),
			Analysis: text,
		})
	}

	return analyses
}

func (a *RegionAnalyzer) analyzeOne(ctx context.Context, img gocv.Mat, region diff.Region) (string, error) {
	crop, err := cropRegion(img, region, a.cfg.RegionMargin, a.cfg.UpscaleRegions, a.cfg.CaptureQuality)
	if err != nil {
		return "", fmt.Errorf("extract region: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.AITimeout)
	defer cancel()

	return a.backend.Describe(callCtx, vision.Request{
		Model:  a.cfg.Model,
		Prompt: regionPrompt(a.cfg.Focus, region.ChangePercent),
		Image:  crop,
	})
}

// cropRegion cuts the region plus margin out of the frame, clamped to the
// image bounds, optionally upscaling small crops, and re-encodes as JPEG.
func cropRegion(img gocv.Mat, region diff.Region, margin int, upscale bool, quality int) ([]byte, error) {
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	rect := image.Rect(
		region.X-margin,
		region.Y-margin,
		region.X+region.Width+margin,
		region.Y+region.Height+margin,
	).Intersect(bounds)

	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("region outside frame bounds")
	}

	view := img.Region(rect)
	crop := view.Clone()
	view.Close()
	defer crop.Close()

	if upscale {
		smaller := crop.Cols()
		if crop.Rows() < smaller {
			smaller = crop.Rows()
		}
		if smaller < minCropSize {
			factor := float64(minCropSize) / float64(smaller)
			newW := int(float64(crop.Cols()) * factor)
			newH := int(float64(crop.Rows()) * factor)
			gocv.Resize(crop, &crop, image.Pt(newW, newH), 0, 0, gocv.InterpolationLanczos4)
		}
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, crop, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// regionPrompt builds the focus-aware prompt for one region crop.
func regionPrompt(focus string, changePercent float64) string {
	return fmt.Sprintf(
		"This image is a cropped region of a monitored video frame where %.1f%% of pixels just changed. "+
			"Describe concisely what you see, paying particular attention to any %s. "+
			"Answer in one or two sentences.",
		changePercent, focus,
	)
}

// zoneLabel returns the name of the first zone containing the region
// center, or empty when no zone matches.
func zoneLabel(zones []Zone, region diff.Region, imgW, imgH int) string {
	if len(zones) == 0 {
		return ""
	}
	cx, cy := region.Center()
	for _, z := range zones {
		if z.Contains(cx, cy, imgW, imgH) {
			return z.Name
		}
	}
	return ""
}

// summarize joins per-region analyses into the frame-level summary line.
func summarize(analyses []RegionAnalysis) string {
	if len(analyses) == 0 {
		return "No significant changes"
	}

	parts := make([]string, 0, len(analyses))
	for _, ra := range analyses {
		text := truncateText(ra.Analysis, 200)
		parts = append(parts, fmt.Sprintf("[%v%% change] %s", ra.Region.ChangePercent, text))
	}

	return strings.Join(parts, " | ")
}

// truncateText shortens s to at most max bytes without splitting a rune,
// keeping model output valid UTF-8 for the JSON timeline.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
