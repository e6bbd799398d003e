package monitor

import (
	"sync"
	"time"
)

// AdaptiveController derives the capture interval from a bounded activity
// score. The processing loop is the only writer (RecordChange and
// RecordStable); the capture loop only reads snapshots. A single mutex is
// enough with one writer.
//
// The interval is linear in the score: full activity pins capture at
// MinInterval, no activity relaxes it to MaxInterval.
type AdaptiveController struct {
	minInterval time.Duration
	maxInterval time.Duration
	adaptive    bool
	rise        float64
	decay       float64

	mu       sync.Mutex
	score    float64
	interval time.Duration
}

// NewAdaptiveController creates a controller starting at full capture
// rate (interval = MinInterval, score = 0), matching a fresh session
// where the first frames establish the baseline quickly.
func NewAdaptiveController(cfg Config) *AdaptiveController {
	return &AdaptiveController{
		minInterval: cfg.MinInterval,
		maxInterval: cfg.MaxInterval,
		adaptive:    cfg.AdaptiveInterval,
		rise:        cfg.ActivityRise,
		decay:       cfg.ActivityDecay,
		interval:    cfg.MinInterval,
	}
}

// Interval returns the current capture interval.
func (c *AdaptiveController) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// ActivityScore returns the current activity score in [0,1].
func (c *AdaptiveController) ActivityScore() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

// RecordChange raises the activity score after a change frame, speeding
// up capture.
func (c *AdaptiveController) RecordChange() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.score += c.rise
	if c.score > 1 {
		c.score = 1
	}
	c.recompute()
}

// RecordStable lowers the activity score after a stable frame, relaxing
// capture.
func (c *AdaptiveController) RecordStable() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.score -= c.decay
	if c.score < 0 {
		c.score = 0
	}
	c.recompute()
}

// recompute derives the interval from the score. Callers hold c.mu.
func (c *AdaptiveController) recompute() {
	if !c.adaptive {
		c.interval = c.minInterval
		return
	}
	spread := c.maxInterval - c.minInterval
	c.interval = c.minInterval + time.Duration((1-c.score)*float64(spread))
}
