package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg grabs single frames by shelling out to ffmpeg. The descriptor is
// passed through untouched: RTSP/HTTP URLs, video files and capture
// devices all work as long as ffmpeg understands them.
type FFmpeg struct {
	descriptor string
	quality    int // JPEG quality 1-100
}

// NewFFmpeg creates an ffmpeg-backed source.
func NewFFmpeg(descriptor string, quality int) *FFmpeg {
	if quality < 1 || quality > 100 {
		quality = 90
	}
	return &FFmpeg{descriptor: descriptor, quality: quality}
}

// Capture runs ffmpeg for exactly one frame and returns the JPEG bytes.
// The context bounds the whole ffmpeg invocation.
func (s *FFmpeg) Capture(ctx context.Context) ([]byte, error) {
	args := []string{"-y", "-loglevel", "error"}
	if strings.HasPrefix(s.descriptor, "rtsp://") {
		args = append(args, "-rtsp_transport", "tcp")
	}
	args = append(args,
		"-i", s.descriptor,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(jpegQScale(s.quality)),
		"-f", "image2",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("ffmpeg capture: %w: %s", err, msg)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg capture: no frame data from %s", s.descriptor)
	}

	return stdout.Bytes(), nil
}

// jpegQScale maps JPEG quality 1-100 to ffmpeg's inverted 1-31 q:v scale.
func jpegQScale(quality int) int {
	q := 32 - quality/3
	if q < 1 {
		q = 1
	}
	if q > 31 {
		q = 31
	}
	return q
}
