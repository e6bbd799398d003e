package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config should validate, got: %v", errs)
	}
}

func TestValidate_RejectsBadRanges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min above max", func(c *Config) { c.MinInterval = 10 * time.Second; c.MaxInterval = time.Second }},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }},
		{"negative buffer", func(c *Config) { c.BufferSize = -5 }},
		{"grid below one", func(c *Config) { c.GridSize = 0 }},
		{"threshold above 100", func(c *Config) { c.DiffThreshold = 150 }},
		{"zero scale", func(c *Config) { c.Scale = 0 }},
		{"scale above one", func(c *Config) { c.Scale = 1.5 }},
		{"zero duration", func(c *Config) { c.Duration = 0 }},
		{"bad quality", func(c *Config) { c.CaptureQuality = 0 }},
		{"zero activity rise", func(c *Config) { c.ActivityRise = 0 }},
		{"negative margin", func(c *Config) { c.RegionMargin = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if errs := cfg.Validate(); len(errs) == 0 {
				t.Errorf("expected validation errors")
			}
		})
	}
}

func TestFromParams(t *testing.T) {
	cfg, err := FromParams(map[string]string{
		"source":       "rtsp://camera/live",
		"min_interval": "2",
		"max_interval": "8s",
		"adaptive":     "false",
		"buffer_size":  "50",
		"threshold":    "30",
		"min_change":   "1.5",
		"min_region":   "300",
		"grid":         "16",
		"scale":        "0.5",
		"ai":           "no",
		"max_regions":  "5",
		"quality":      "75",
		"save_all":     "true",
		"duration":     "120",
		"focus":        "vehicle",
		"model":        "llava:7b",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Source != "rtsp://camera/live" {
		t.Errorf("source not set: %s", cfg.Source)
	}
	if cfg.MinInterval != 2*time.Second {
		t.Errorf("expected min_interval 2s from bare seconds, got %v", cfg.MinInterval)
	}
	if cfg.MaxInterval != 8*time.Second {
		t.Errorf("expected max_interval 8s from duration string, got %v", cfg.MaxInterval)
	}
	if cfg.AdaptiveInterval {
		t.Error("expected adaptive disabled")
	}
	if cfg.BufferSize != 50 || cfg.DiffThreshold != 30 || cfg.GridSize != 16 {
		t.Errorf("int params not applied: %+v", cfg)
	}
	if cfg.MinChangePercent != 1.5 || cfg.Scale != 0.5 {
		t.Errorf("float params not applied: %+v", cfg)
	}
	if cfg.AIEnabled {
		t.Error("expected ai disabled via 'no'")
	}
	if !cfg.SaveAllFrames {
		t.Error("expected save_all enabled")
	}
	if cfg.Duration != 120*time.Second {
		t.Errorf("expected duration 120s, got %v", cfg.Duration)
	}
	if cfg.Focus != "vehicle" || cfg.Model != "llava:7b" {
		t.Errorf("string params not applied: %+v", cfg)
	}
}

func TestFromParams_MalformedValue(t *testing.T) {
	if _, err := FromParams(map[string]string{"buffer_size": "lots"}); err == nil {
		t.Error("expected error for malformed buffer_size")
	}
	if _, err := FromParams(map[string]string{"min_interval": "soon"}); err == nil {
		t.Error("expected error for malformed min_interval")
	}
}

func TestFromParams_UnknownKeysIgnored(t *testing.T) {
	cfg, err := FromParams(map[string]string{"frobnicate": "42"})
	if err != nil {
		t.Fatalf("unknown keys should be ignored, got: %v", err)
	}
	if cfg.BufferSize != DefaultConfig().BufferSize {
		t.Error("unknown key should not change defaults")
	}
}

func TestParseZones(t *testing.T) {
	zones, err := ParseZones("door:0,40,30,60|window:60,20,40,50,15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}

	door := zones[0]
	if door.Name != "door" || door.X != 0 || door.Y != 40 || door.Width != 30 || door.Height != 60 {
		t.Errorf("door zone wrong: %+v", door)
	}
	if door.Sensitivity != 25.0 {
		t.Errorf("expected default sensitivity 25, got %v", door.Sensitivity)
	}
	if zones[1].Sensitivity != 15 {
		t.Errorf("expected explicit sensitivity 15, got %v", zones[1].Sensitivity)
	}
}

func TestParseZones_Malformed(t *testing.T) {
	if _, err := ParseZones("door:0,40"); err == nil {
		t.Error("expected error for missing coordinates")
	}
	if _, err := ParseZones("door:a,b,c,d"); err == nil {
		t.Error("expected error for non-numeric coordinates")
	}
}

func TestZone_Contains(t *testing.T) {
	z := Zone{Name: "door", X: 0, Y: 40, Width: 30, Height: 60}

	// 100x100 frame: zone covers x 0-30, y 40-100.
	if !z.Contains(15, 70, 100, 100) {
		t.Error("expected point inside zone")
	}
	if z.Contains(50, 70, 100, 100) {
		t.Error("expected point outside zone")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.yaml")

	data := []byte("buffer_size: 25\nmin_interval: 2s\nfocus: vehicle\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BufferSize != 25 {
		t.Errorf("expected buffer_size 25, got %d", cfg.BufferSize)
	}
	if cfg.MinInterval != 2*time.Second {
		t.Errorf("expected min_interval 2s, got %v", cfg.MinInterval)
	}
	if cfg.Focus != "vehicle" {
		t.Errorf("expected focus vehicle, got %s", cfg.Focus)
	}
	// Untouched keys keep their defaults.
	if cfg.GridSize != DefaultConfig().GridSize {
		t.Errorf("expected default grid size, got %d", cfg.GridSize)
	}
}
