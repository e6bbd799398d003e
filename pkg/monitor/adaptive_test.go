package monitor

import (
	"testing"
	"time"
)

func adaptiveTestConfig() Config {
	cfg := DefaultConfig()
	cfg.MinInterval = 1 * time.Second
	cfg.MaxInterval = 10 * time.Second
	cfg.AdaptiveInterval = true
	cfg.ActivityRise = 0.3
	cfg.ActivityDecay = 0.1
	return cfg
}

func TestAdaptive_StartsAtFullRate(t *testing.T) {
	c := NewAdaptiveController(adaptiveTestConfig())

	if c.Interval() != 1*time.Second {
		t.Errorf("expected initial interval 1s, got %v", c.Interval())
	}
	if c.ActivityScore() != 0 {
		t.Errorf("expected initial score 0, got %v", c.ActivityScore())
	}
}

func TestAdaptive_ChangeSpeedsUpCapture(t *testing.T) {
	c := NewAdaptiveController(adaptiveTestConfig())

	c.RecordChange()
	if got := c.ActivityScore(); got != 0.3 {
		t.Errorf("expected score 0.3 after one change, got %v", got)
	}
	// interval = 1s + 9s*(1-0.3) = 7.3s
	if got := c.Interval(); got != 7300*time.Millisecond {
		t.Errorf("expected interval 7.3s, got %v", got)
	}

	c.RecordChange()
	c.RecordChange()
	c.RecordChange()
	if got := c.ActivityScore(); got != 1 {
		t.Errorf("expected score clamped to 1, got %v", got)
	}
	if got := c.Interval(); got != 1*time.Second {
		t.Errorf("expected interval pinned at min, got %v", got)
	}
}

func TestAdaptive_StableRelaxesCapture(t *testing.T) {
	c := NewAdaptiveController(adaptiveTestConfig())

	for i := 0; i < 20; i++ {
		c.RecordStable()
	}
	if got := c.ActivityScore(); got != 0 {
		t.Errorf("expected score floored at 0, got %v", got)
	}
	if got := c.Interval(); got != 10*time.Second {
		t.Errorf("expected interval relaxed to max, got %v", got)
	}
}

func TestAdaptive_IntervalStaysBounded(t *testing.T) {
	c := NewAdaptiveController(adaptiveTestConfig())

	record := []func(){c.RecordChange, c.RecordStable}
	for i := 0; i < 100; i++ {
		record[i%2]()
		got := c.Interval()
		if got < 1*time.Second || got > 10*time.Second {
			t.Fatalf("interval %v escaped [min, max] at step %d", got, i)
		}
		score := c.ActivityScore()
		if score < 0 || score > 1 {
			t.Fatalf("score %v escaped [0, 1] at step %d", score, i)
		}
	}
}

func TestAdaptive_DisabledPinsMinInterval(t *testing.T) {
	cfg := adaptiveTestConfig()
	cfg.AdaptiveInterval = false
	c := NewAdaptiveController(cfg)

	c.RecordStable()
	c.RecordStable()
	if got := c.Interval(); got != 1*time.Second {
		t.Errorf("expected fixed min interval with adaptation off, got %v", got)
	}
	c.RecordChange()
	if got := c.Interval(); got != 1*time.Second {
		t.Errorf("expected fixed min interval with adaptation off, got %v", got)
	}
}
