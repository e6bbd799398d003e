package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"gocv.io/x/gocv"

	"github.com/framewatch/framewatch/pkg/diff"
	"github.com/framewatch/framewatch/pkg/vision"
)

func decodeDims(t *testing.T, jpeg []byte) (int, int) {
	t.Helper()
	m, err := gocv.IMDecode(jpeg, gocv.IMReadGrayScale)
	if err != nil {
		t.Fatalf("decode crop: %v", err)
	}
	defer m.Close()
	if m.Empty() {
		t.Fatal("decode crop: empty image")
	}
	return m.Cols(), m.Rows()
}

func TestCropRegion_ClampsToFrameBounds(t *testing.T) {
	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC1)
	defer img.Close()

	// Region at the frame corner: the margin cannot extend past 0.
	crop, err := cropRegion(img, diff.Region{X: 0, Y: 0, Width: 40, Height: 40}, 30, false, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, h := decodeDims(t, crop)
	if w != 70 || h != 70 {
		t.Errorf("expected 70x70 clamped crop, got %dx%d", w, h)
	}
}

func TestCropRegion_UpscalesSmallCrops(t *testing.T) {
	img := gocv.NewMatWithSize(200, 300, gocv.MatTypeCV8UC1)
	defer img.Close()

	crop, err := cropRegion(img, diff.Region{X: 100, Y: 50, Width: 80, Height: 40}, 0, true, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, h := decodeDims(t, crop)
	if h != 400 {
		t.Errorf("expected smaller dimension scaled to 400, got %dx%d", w, h)
	}
	if w != 800 {
		t.Errorf("expected aspect ratio preserved (800 wide), got %dx%d", w, h)
	}
}

func TestCropRegion_OutsideBounds(t *testing.T) {
	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC1)
	defer img.Close()

	if _, err := cropRegion(img, diff.Region{X: 500, Y: 500, Width: 10, Height: 10}, 0, false, 90); err == nil {
		t.Error("expected error for a region entirely outside the frame")
	}
}

func TestAnalyzeRegions_LimitsAndEmbedsFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRegionsToAnalyze = 2
	cfg.UpscaleRegions = false
	cfg.RegionMargin = 0

	backend := vision.NewMock()
	backend.DescribeFunc = func(ctx context.Context, req vision.Request) (string, error) {
		if len(backend.Calls()) == 1 {
			return "a cat on the desk", nil
		}
		return "", errors.New("model unavailable")
	}

	a := NewRegionAnalyzer(cfg, backend)
	frame := testSquareFrame(t)

	regions := []diff.Region{
		{X: 10, Y: 10, Width: 30, Height: 30, ChangePercent: 40},
		{X: 50, Y: 50, Width: 30, Height: 30, ChangePercent: 20},
		{X: 0, Y: 60, Width: 20, Height: 20, ChangePercent: 5},
	}

	analyses := a.AnalyzeRegions(context.Background(), frame, regions)
	if len(analyses) != 2 {
		t.Fatalf("expected analysis limited to 2 regions, got %d", len(analyses))
	}
	if backend.CallCount() != 2 {
		t.Errorf("expected 2 backend calls, got %d", backend.CallCount())
	}

	if analyses[0].Analysis != "a cat on the desk" {
		t.Errorf("unexpected first analysis: %q", analyses[0].Analysis)
	}
	if !strings.Contains(analyses[1].Analysis, "analysis failed") ||
		!strings.Contains(analyses[1].Analysis, "model unavailable") {
		t.Errorf("expected embedded failure, got %q", analyses[1].Analysis)
	}
}

func TestAnalyzeRegions_ZeroLimitDisablesAnalysis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRegionsToAnalyze = 0

	backend := vision.NewMock()
	a := NewRegionAnalyzer(cfg, backend)

	regions := []diff.Region{
		{X: 10, Y: 10, Width: 30, Height: 30, ChangePercent: 40},
		{X: 50, Y: 50, Width: 30, Height: 30, ChangePercent: 20},
	}
	analyses := a.AnalyzeRegions(context.Background(), testSquareFrame(t), regions)

	if len(analyses) != 0 {
		t.Errorf("expected no analyses with a zero limit, got %d", len(analyses))
	}
	if got := backend.CallCount(); got != 0 {
		t.Errorf("expected no vision calls with a zero limit, got %d", got)
	}
}

func TestAnalyzeRegions_UndecodableFrame(t *testing.T) {
	a := NewRegionAnalyzer(DefaultConfig(), vision.NewMock())

	analyses := a.AnalyzeRegions(context.Background(), []byte("not a jpeg"), []diff.Region{
		{X: 0, Y: 0, Width: 10, Height: 10},
	})
	if len(analyses) != 0 {
		t.Errorf("expected no analyses for an undecodable frame, got %d", len(analyses))
	}
}

func TestSummarize(t *testing.T) {
	if got := summarize(nil); got != "No significant changes" {
		t.Errorf("unexpected empty summary: %q", got)
	}

	got := summarize([]RegionAnalysis{
		{Region: diff.Region{ChangePercent: 12.5}, Analysis: "a door opened"},
		{Region: diff.Region{ChangePercent: 3}, Analysis: "shadows shifted"},
	})
	want := "[12.5% change] a door opened | [3% change] shadows shifted"
	if got != want {
		t.Errorf("summary mismatch:\n got %q\nwant %q", got, want)
	}

	long := summarize([]RegionAnalysis{
		{Region: diff.Region{ChangePercent: 1}, Analysis: strings.Repeat("x", 500)},
	})
	if len(long) > 250 {
		t.Errorf("expected per-region text truncated, got %d chars", len(long))
	}
}

func TestSummarize_TruncatesOnRuneBoundary(t *testing.T) {
	// 100 three-byte runes: byte 200 falls mid-rune.
	got := summarize([]RegionAnalysis{
		{Region: diff.Region{ChangePercent: 5}, Analysis: strings.Repeat("猫", 100)},
	})
	if !utf8.ValidString(got) {
		t.Errorf("summary is not valid UTF-8: %q", got)
	}
	if strings.ContainsRune(got, utf8.RuneError) {
		t.Errorf("summary contains a replacement rune: %q", got)
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 200); got != "short" {
		t.Errorf("expected short text untouched, got %q", got)
	}

	s := strings.Repeat("é", 150) // 2 bytes each
	got := truncateText(s, 199)   // odd cut lands mid-rune
	if len(got) != 198 {
		t.Errorf("expected cut back to 198 bytes, got %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got)
	}
}

func TestRegionPrompt(t *testing.T) {
	p := regionPrompt("person", 12.3)
	if !strings.Contains(p, "person") {
		t.Errorf("expected focus in prompt: %q", p)
	}
	if !strings.Contains(p, "12.3%") {
		t.Errorf("expected change percent in prompt: %q", p)
	}
}
