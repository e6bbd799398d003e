package monitor

import (
	"fmt"
	"strconv"
	"strings"
)

// Zone is a named rectangular area of interest in percentage coordinates
// (0-100 of the frame). Zones label results; they do not gate detection.
type Zone struct {
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Sensitivity float64 `json:"sensitivity"`
}

// ToPixels converts the percentage coordinates to pixels for a frame of
// the given dimensions.
func (z Zone) ToPixels(imgW, imgH int) (x, y, w, h int) {
	x = int(z.X / 100 * float64(imgW))
	y = int(z.Y / 100 * float64(imgH))
	w = int(z.Width / 100 * float64(imgW))
	h = int(z.Height / 100 * float64(imgH))
	return x, y, w, h
}

// Contains reports whether the pixel point (px,py) lies inside the zone
// for a frame of the given dimensions.
func (z Zone) Contains(px, py, imgW, imgH int) bool {
	x, y, w, h := z.ToPixels(imgW, imgH)
	return px >= x && px < x+w && py >= y && py < y+h
}

// Validate checks zone bounds.
func (z Zone) Validate() []string {
	var errors []string
	if z.Name == "" {
		errors = append(errors, "name must not be empty")
	}
	if z.X < 0 || z.X > 100 || z.Y < 0 || z.Y > 100 {
		errors = append(errors, "origin must be within 0-100 percent")
	}
	if z.Width <= 0 || z.Height <= 0 {
		errors = append(errors, "width and height must be positive")
	}
	if z.X+z.Width > 100 || z.Y+z.Height > 100 {
		errors = append(errors, "zone extends past the frame")
	}
	return errors
}

// ParseZones parses zone definitions of the form
// "name:x,y,w,h[,sensitivity]|name2:x,y,w,h". Coordinates are percentages.
func ParseZones(s string) ([]Zone, error) {
	var zones []Zone

	for _, def := range strings.Split(s, "|") {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		name, coords, found := strings.Cut(def, ":")
		if !found {
			return nil, fmt.Errorf("zone %q: missing name separator", def)
		}

		parts := strings.Split(coords, ",")
		if len(parts) < 4 {
			return nil, fmt.Errorf("zone %q: need x,y,w,h", def)
		}

		vals := make([]float64, 0, 5)
		for _, p := range parts[:4] {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("zone %q: %w", def, err)
			}
			vals = append(vals, v)
		}

		z := Zone{
			Name:        strings.TrimSpace(name),
			X:           vals[0],
			Y:           vals[1],
			Width:       vals[2],
			Height:      vals[3],
			Sensitivity: 25.0,
		}
		if len(parts) > 4 {
			sens, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
			if err != nil {
				return nil, fmt.Errorf("zone %q: %w", def, err)
			}
			z.Sensitivity = sens
		}

		zones = append(zones, z)
	}

	return zones, nil
}
