package diff

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Options control pixel differencing.
type Options struct {
	// Threshold is the per-pixel intensity delta (0-255 scale) above which
	// a pixel counts as changed. Lower is more sensitive.
	Threshold int

	// GridSize partitions the binary diff into GridSize x GridSize cells
	// for region detection.
	GridSize int

	// Scale optionally downscales both frames before differencing for
	// speed (0 < Scale <= 1). Region coordinates are always returned in
	// full-resolution pixels. Values outside (0, 1] disable downscaling.
	Scale float64
}

// cellActivation is the minimum mean intensity (percent) for a grid cell
// to be emitted as a candidate region.
const cellActivation = 1.0

// Diff compares two JPEG-encoded frames and returns the overall change
// percentage plus candidate changed regions in full-resolution coordinates.
//
// When prev is nil (first frame of a session) the frame is treated as fully
// changed: 100 percent, no regions. A decode failure is non-fatal to the
// caller: Diff returns zero change and the error as a diagnostic.
func Diff(prev, curr []byte, opts Options) (float64, []Region, error) {
	if prev == nil {
		return 100, nil, nil
	}
	if opts.GridSize < 1 {
		opts.GridSize = 1
	}
	if opts.Scale <= 0 || opts.Scale > 1 {
		opts.Scale = 1
	}

	prevImg, err := gocv.IMDecode(prev, gocv.IMReadGrayScale)
	if err != nil {
		return 0, nil, fmt.Errorf("decode previous frame: %w", err)
	}
	defer prevImg.Close()
	if prevImg.Empty() {
		return 0, nil, fmt.Errorf("decode previous frame: empty image")
	}

	currImg, err := gocv.IMDecode(curr, gocv.IMReadGrayScale)
	if err != nil {
		return 0, nil, fmt.Errorf("decode current frame: %w", err)
	}
	defer currImg.Close()
	if currImg.Empty() {
		return 0, nil, fmt.Errorf("decode current frame: empty image")
	}

	// Dimensions must match before differencing.
	if prevImg.Cols() != currImg.Cols() || prevImg.Rows() != currImg.Rows() {
		gocv.Resize(currImg, &currImg, image.Pt(prevImg.Cols(), prevImg.Rows()), 0, 0, gocv.InterpolationLinear)
	}

	fullW, fullH := prevImg.Cols(), prevImg.Rows()

	a, b := prevImg, currImg
	if opts.Scale < 1 {
		smallW := maxInt(1, int(float64(fullW)*opts.Scale))
		smallH := maxInt(1, int(float64(fullH)*opts.Scale))

		small1 := gocv.NewMat()
		defer small1.Close()
		small2 := gocv.NewMat()
		defer small2.Close()
		gocv.Resize(prevImg, &small1, image.Pt(smallW, smallH), 0, 0, gocv.InterpolationLinear)
		gocv.Resize(currImg, &small2, image.Pt(smallW, smallH), 0, 0, gocv.InterpolationLinear)
		a, b = small1, small2
	}

	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(a, b, &delta)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(delta, &binary, float32(opts.Threshold), 255, gocv.ThresholdBinary)

	total := binary.Cols() * binary.Rows()
	if total == 0 {
		return 0, nil, nil
	}
	changePercent := round2(100 * float64(gocv.CountNonZero(binary)) / float64(total))

	regions := gridRegions(binary, opts.GridSize)

	// Map downscaled coordinates back to the full-resolution frame.
	if opts.Scale < 1 && len(regions) > 0 {
		sx := float64(fullW) / float64(binary.Cols())
		sy := float64(fullH) / float64(binary.Rows())
		for i, r := range regions {
			regions[i] = Region{
				X:             int(float64(r.X) * sx),
				Y:             int(float64(r.Y) * sy),
				Width:         int(float64(r.Width) * sx),
				Height:        int(float64(r.Height) * sy),
				ChangePercent: r.ChangePercent,
			}
		}
	}

	return changePercent, regions, nil
}

// gridRegions scans the binary diff in a grid and emits one candidate
// region per cell whose mean intensity exceeds the activation floor.
func gridRegions(binary gocv.Mat, gridSize int) []Region {
	width, height := binary.Cols(), binary.Rows()
	cellW := width / gridSize
	cellH := height / gridSize
	if cellW == 0 || cellH == 0 {
		return nil
	}

	var regions []Region
	for gy := 0; gy < gridSize; gy++ {
		for gx := 0; gx < gridSize; gx++ {
			x1 := gx * cellW
			y1 := gy * cellH
			x2 := minInt((gx+1)*cellW, width)
			y2 := minInt((gy+1)*cellH, height)

			cell := binary.Region(image.Rect(x1, y1, x2, y2))
			mean := cell.Mean().Val1 / 255 * 100
			cell.Close()

			if mean > cellActivation {
				regions = append(regions, Region{
					X:             x1,
					Y:             y1,
					Width:         x2 - x1,
					Height:        y2 - y1,
					ChangePercent: round2(mean),
				})
			}
		}
	}
	return regions
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
