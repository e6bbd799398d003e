// Package monitor implements buffered adaptive change monitoring of a
// video source: frames are captured on an activity-driven interval,
// queued in a bounded buffer, pixel-diffed against the previous processed
// frame, and only the changed regions are sent to a vision model.
package monitor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable parameters for a monitor session.
// Construct with DefaultConfig and override, with FromParams for the flat
// key/value surface, or with LoadConfig for a YAML file. A Config is
// validated once at session construction and never mutated afterwards.
type Config struct {
	// Source is the opaque descriptor of the monitored source (URL,
	// device, file path). Informational: the session itself only talks
	// to the source.Source it is given.
	Source string `json:"source"`

	// === Timing ===
	MinInterval      time.Duration `json:"min_interval"`      // fastest capture cadence
	MaxInterval      time.Duration `json:"max_interval"`      // slowest capture cadence
	AdaptiveInterval bool          `json:"adaptive_interval"` // derive cadence from activity

	// Duration bounds the whole session; the capture loop stops when it
	// elapses and the processing loop drains what is left.
	Duration     time.Duration `json:"duration"`
	DrainTimeout time.Duration `json:"drain_timeout"`

	// CaptureTimeout bounds a single FrameSource call.
	CaptureTimeout time.Duration `json:"capture_timeout"`

	// === Buffer ===
	BufferSize int `json:"buffer_size"` // max queued frames; overflow drops

	// === Detection ===
	DiffThreshold    int     `json:"diff_threshold"`     // per-pixel delta 0-100, lower = more sensitive
	MinChangePercent float64 `json:"min_change_percent"` // frame change % to trigger analysis
	MinRegionSize    int     `json:"min_region_size"`    // merged region area floor, pixels
	GridSize         int     `json:"grid_size"`          // region detection grid
	Scale            float64 `json:"scale"`              // diff downscale factor (0,1]

	// === AI analysis ===
	AIEnabled           bool          `json:"ai_enabled"`
	MaxRegionsToAnalyze int           `json:"max_regions_to_analyze"` // vision calls per frame; 0 disables region analysis
	AITimeout           time.Duration `json:"ai_timeout"`
	Model               string        `json:"model"`
	Focus               string        `json:"focus"` // what the prompt asks the model to look for

	// === Quality ===
	CaptureQuality int  `json:"capture_quality"` // JPEG quality 1-100
	RegionMargin   int  `json:"region_margin"`   // context pixels around a crop
	UpscaleRegions bool `json:"upscale_regions"` // enlarge small crops before analysis

	// === Adaptive tuning ===
	// ActivityRise is added to the activity score on a change frame,
	// ActivityDecay subtracted on a stable frame. Both clamp the score
	// to [0,1].
	ActivityRise  float64 `json:"activity_rise"`
	ActivityDecay float64 `json:"activity_decay"`

	// === Output ===
	SaveAllFrames bool `json:"save_all_frames"` // keep stable results in the timeline
	SaveFrames    bool `json:"save_frames"`     // embed frame JPEGs in change results
	MaxTimeline   int  `json:"max_timeline"`    // in-memory timeline cap, 0 = unbounded

	// === Zones ===
	Zones []Zone `json:"zones,omitempty"`
}

// DefaultConfig returns the recommended monitoring configuration.
func DefaultConfig() Config {
	return Config{
		MinInterval:      1 * time.Second,
		MaxInterval:      10 * time.Second,
		AdaptiveInterval: true,

		Duration:       60 * time.Second,
		DrainTimeout:   10 * time.Second,
		CaptureTimeout: 10 * time.Second,

		BufferSize: 100,

		DiffThreshold:    25,
		MinChangePercent: 0.5,
		MinRegionSize:    500,
		GridSize:         8,
		Scale:            1.0,

		AIEnabled:           true,
		MaxRegionsToAnalyze: 3,
		AITimeout:           30 * time.Second,
		Model:               "llava:13b",
		Focus:               "person",

		CaptureQuality: 90,
		RegionMargin:   30,
		UpscaleRegions: true,

		ActivityRise:  0.3,
		ActivityDecay: 0.1,

		MaxTimeline: 10000,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.MinInterval <= 0 {
		errors = append(errors, "min_interval must be positive")
	}
	if c.MaxInterval < c.MinInterval {
		errors = append(errors, "max_interval must be >= min_interval")
	}
	if c.Duration <= 0 {
		errors = append(errors, "duration must be positive")
	}
	if c.DrainTimeout <= 0 {
		errors = append(errors, "drain_timeout must be positive")
	}
	if c.CaptureTimeout <= 0 {
		errors = append(errors, "capture_timeout must be positive")
	}
	if c.BufferSize < 1 {
		errors = append(errors, "buffer_size must be at least 1")
	}
	if c.DiffThreshold < 0 || c.DiffThreshold > 100 {
		errors = append(errors, "diff_threshold must be between 0 and 100")
	}
	if c.MinChangePercent < 0 || c.MinChangePercent > 100 {
		errors = append(errors, "min_change_percent must be between 0 and 100")
	}
	if c.MinRegionSize < 0 {
		errors = append(errors, "min_region_size must not be negative")
	}
	if c.GridSize < 1 {
		errors = append(errors, "grid_size must be at least 1")
	}
	if c.Scale <= 0 || c.Scale > 1 {
		errors = append(errors, "scale must be in (0, 1]")
	}
	if c.MaxRegionsToAnalyze < 0 {
		errors = append(errors, "max_regions_to_analyze must not be negative")
	}
	if c.AIEnabled && c.AITimeout <= 0 {
		errors = append(errors, "ai_timeout must be positive")
	}
	if c.CaptureQuality < 1 || c.CaptureQuality > 100 {
		errors = append(errors, "capture_quality must be between 1 and 100")
	}
	if c.RegionMargin < 0 {
		errors = append(errors, "region_margin must not be negative")
	}
	if c.ActivityRise <= 0 || c.ActivityRise > 1 {
		errors = append(errors, "activity_rise must be in (0, 1]")
	}
	if c.ActivityDecay <= 0 || c.ActivityDecay > 1 {
		errors = append(errors, "activity_decay must be in (0, 1]")
	}
	if c.MaxTimeline < 0 {
		errors = append(errors, "max_timeline must not be negative")
	}
	for _, z := range c.Zones {
		if errs := z.Validate(); len(errs) > 0 {
			for _, e := range errs {
				errors = append(errors, fmt.Sprintf("zone %q: %s", z.Name, e))
			}
		}
	}

	return errors
}

// FromParams builds a Config from the flat key/value surface used by the
// CLI and URI-style callers. Unknown keys are ignored; malformed values
// are errors. Durations accept either Go duration strings ("1.5s") or a
// plain number of seconds.
func FromParams(params map[string]string) (Config, error) {
	return DefaultConfig().WithParams(params)
}

// WithParams returns a copy of the config with the given params layered
// on top, using the FromParams key surface.
func (c Config) WithParams(params map[string]string) (Config, error) {
	cfg := c

	for key, value := range params {
		var err error
		switch key {
		case "source":
			cfg.Source = value
		case "min_interval":
			cfg.MinInterval, err = parseSeconds(value)
		case "max_interval":
			cfg.MaxInterval, err = parseSeconds(value)
		case "adaptive":
			cfg.AdaptiveInterval = parseBool(value, true)
		case "duration":
			cfg.Duration, err = parseSeconds(value)
		case "drain_timeout":
			cfg.DrainTimeout, err = parseSeconds(value)
		case "capture_timeout":
			cfg.CaptureTimeout, err = parseSeconds(value)
		case "buffer_size":
			cfg.BufferSize, err = strconv.Atoi(value)
		case "threshold":
			cfg.DiffThreshold, err = strconv.Atoi(value)
		case "min_change":
			cfg.MinChangePercent, err = strconv.ParseFloat(value, 64)
		case "min_region":
			cfg.MinRegionSize, err = strconv.Atoi(value)
		case "grid":
			cfg.GridSize, err = strconv.Atoi(value)
		case "scale":
			cfg.Scale, err = strconv.ParseFloat(value, 64)
		case "ai":
			cfg.AIEnabled = parseBool(value, true)
		case "max_regions":
			cfg.MaxRegionsToAnalyze, err = strconv.Atoi(value)
		case "ai_timeout":
			cfg.AITimeout, err = parseSeconds(value)
		case "model":
			cfg.Model = value
		case "focus":
			cfg.Focus = value
		case "quality":
			cfg.CaptureQuality, err = strconv.Atoi(value)
		case "margin":
			cfg.RegionMargin, err = strconv.Atoi(value)
		case "upscale":
			cfg.UpscaleRegions = parseBool(value, true)
		case "save_all":
			cfg.SaveAllFrames = parseBool(value, false)
		case "save_frames":
			cfg.SaveFrames = parseBool(value, false)
		case "max_timeline":
			cfg.MaxTimeline, err = strconv.Atoi(value)
		case "zones":
			cfg.Zones, err = ParseZones(value)
		}
		if err != nil {
			return Config{}, fmt.Errorf("param %s=%q: %w", key, value, err)
		}
	}

	return cfg, nil
}

// LoadConfig reads a YAML config file over the defaults. The file uses
// the same flat keys as FromParams, so durations may be written either
// as "2s" or as a plain number of seconds.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	params := make(map[string]string, len(raw))
	for key, value := range raw {
		params[key] = fmt.Sprintf("%v", value)
	}

	cfg, err := FromParams(params)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// parseSeconds accepts "2s", "1.5s" style duration strings or a bare
// number of seconds.
func parseSeconds(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a duration or seconds value")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseBool(value string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}
