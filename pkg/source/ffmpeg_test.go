package source

import "testing"

func TestJPEGQScale(t *testing.T) {
	cases := []struct {
		quality int
		want    int
	}{
		{100, 1}, // best quality maps to lowest qscale
		{95, 1},
		{90, 2},
		{50, 16},
		{10, 29},
		{1, 31},
	}

	for _, tc := range cases {
		if got := jpegQScale(tc.quality); got != tc.want {
			t.Errorf("jpegQScale(%d) = %d, want %d", tc.quality, got, tc.want)
		}
	}
}

func TestNewFFmpeg_QualityClamped(t *testing.T) {
	if got := NewFFmpeg("rtsp://cam/live", 0).quality; got != 90 {
		t.Errorf("expected out-of-range quality replaced with 90, got %d", got)
	}
	if got := NewFFmpeg("rtsp://cam/live", 101).quality; got != 90 {
		t.Errorf("expected out-of-range quality replaced with 90, got %d", got)
	}
}
