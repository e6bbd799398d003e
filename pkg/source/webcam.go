package source

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Webcam captures frames from a local camera device or any video source
// OpenCV can open (device index, file path, stream URL). The device is
// opened lazily on the first capture and kept open between frames.
type Webcam struct {
	descriptor string
	quality    int

	mu  sync.Mutex
	cap *gocv.VideoCapture
}

// NewWebcam creates a gocv-backed source. Numeric descriptors are treated
// as device indexes.
func NewWebcam(descriptor string, quality int) *Webcam {
	if quality < 1 || quality > 100 {
		quality = 90
	}
	return &Webcam{descriptor: descriptor, quality: quality}
}

// Capture reads one frame and returns it JPEG-encoded.
func (w *Webcam) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		cap, err := w.open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", w.descriptor, err)
		}
		w.cap = cap
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := w.cap.Read(&img); !ok || img.Empty() {
		// Force a reopen on the next cycle; streams drop.
		w.cap.Close()
		w.cap = nil
		return nil, fmt.Errorf("read frame from %s", w.descriptor)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, w.quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

func (w *Webcam) open() (*gocv.VideoCapture, error) {
	if idx, err := strconv.Atoi(w.descriptor); err == nil {
		return gocv.OpenVideoCapture(idx)
	}
	return gocv.OpenVideoCapture(w.descriptor)
}

// Close releases the underlying device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return nil
	}
	err := w.cap.Close()
	w.cap = nil
	return err
}
