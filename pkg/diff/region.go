// Package diff provides pixel-level change detection between video frames.
// It localizes where a frame changed so that expensive vision-model analysis
// can be limited to the changed regions.
package diff

import (
	"math"
	"sort"
)

// Region is a rectangular area of a frame flagged as changed.
// Coordinates are in pixels of the full-resolution frame.
type Region struct {
	X             int     `json:"x"`
	Y             int     `json:"y"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	ChangePercent float64 `json:"change_percent"` // 0-100 within this region
}

// Area returns the area of the region in pixels.
func (r Region) Area() int {
	return r.Width * r.Height
}

// Center returns the center point of the region.
func (r Region) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Merge consolidates adjacent or overlapping candidate regions.
//
// Regions are grouped transitively: two regions belong to the same group
// when their centers are within 2x the larger region dimension of each
// other. Each group collapses to its bounding box with the area-weighted
// average change percent. Groups smaller than minArea are dropped, and the
// survivors are sorted by change percent descending, larger area first on
// ties. Merge is idempotent once no further groups are absorbable.
func Merge(regions []Region, minArea int) []Region {
	if len(regions) == 0 {
		return nil
	}

	used := make([]bool, len(regions))
	var merged []Region

	for i := range regions {
		if used[i] {
			continue
		}
		group := []int{i}
		used[i] = true

		// Grow the group until no remaining region is near any member.
		for k := 0; k < len(group); k++ {
			for j := range regions {
				if used[j] {
					continue
				}
				if near(regions[group[k]], regions[j]) {
					used[j] = true
					group = append(group, j)
				}
			}
		}

		merged = append(merged, collapse(regions, group))
	}

	kept := merged[:0]
	for _, r := range merged {
		if r.Area() >= minArea {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].ChangePercent != kept[j].ChangePercent {
			return kept[i].ChangePercent > kept[j].ChangePercent
		}
		return kept[i].Area() > kept[j].Area()
	})

	return kept
}

// near reports whether two regions are close enough to merge.
// The reach scales with the larger dimension of either region so that
// already-merged boxes keep absorbing their grid-cell neighbors.
func near(a, b Region) bool {
	ax, ay := a.Center()
	bx, by := b.Center()

	reach := maxDim(a)
	if d := maxDim(b); d > reach {
		reach = d
	}

	return math.Hypot(float64(ax-bx), float64(ay-by)) <= 2*float64(reach)
}

func maxDim(r Region) int {
	if r.Width > r.Height {
		return r.Width
	}
	return r.Height
}

// collapse merges a group of regions into their bounding box with the
// area-weighted average change percent.
func collapse(regions []Region, group []int) Region {
	first := regions[group[0]]
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height

	var weighted, area float64
	for _, idx := range group {
		r := regions[idx]
		if r.X < minX {
			minX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.X+r.Width > maxX {
			maxX = r.X + r.Width
		}
		if r.Y+r.Height > maxY {
			maxY = r.Y + r.Height
		}
		weighted += r.ChangePercent * float64(r.Area())
		area += float64(r.Area())
	}

	avg := 0.0
	if area > 0 {
		avg = weighted / area
	}

	return Region{
		X:             minX,
		Y:             minY,
		Width:         maxX - minX,
		Height:        maxY - minY,
		ChangePercent: round2(avg),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
