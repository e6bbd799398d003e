package monitor

import (
	"time"

	"github.com/framewatch/framewatch/pkg/diff"
)

// Frame result types in the timeline.
const (
	ResultStable = "stable"
	ResultChange = "change"
)

// RegionAnalysis pairs one merged region with its vision-model
// description. Analysis failures are embedded as text rather than
// propagated: a slow or broken backend must not abort the session.
type RegionAnalysis struct {
	Region   diff.Region `json:"region"`
	Zone     string      `json:"zone,omitempty"`
	Analysis string      `json:"analysis"`
}

// FrameResult is one entry of the session timeline.
type FrameResult struct {
	Frame         uint64           `json:"frame"`
	Timestamp     time.Time        `json:"timestamp"`
	Type          string           `json:"type"`
	ChangePercent float64          `json:"change_percent"`
	Regions       int              `json:"regions"`
	Analysis      string           `json:"analysis,omitempty"`
	RegionDetails []RegionAnalysis `json:"region_details,omitempty"`
	ImageBase64   string           `json:"image_base64,omitempty"`
}

// Report is the aggregated outcome of a session, serializable for
// downstream reporting.
type Report struct {
	SessionID          string        `json:"session_id"`
	Success            bool          `json:"success"`
	Source             string        `json:"source,omitempty"`
	Mode               string        `json:"mode"`
	Timeline           []FrameResult `json:"timeline"`
	SignificantChanges int           `json:"significant_changes"`
	FramesCaptured     uint64        `json:"frames_captured"`
	FramesProcessed    uint64        `json:"frames_processed"`
	BufferOverflows    uint64        `json:"buffer_overflows"`
	Zones              []Zone        `json:"zones,omitempty"`
}

// BufferStatus is a point-in-time snapshot of the pipeline state.
type BufferStatus struct {
	Capacity        int     `json:"capacity"`
	Queued          int     `json:"queued"`
	Full            bool    `json:"full"`
	CurrentInterval float64 `json:"current_interval_seconds"`
	ActivityScore   float64 `json:"activity_score"`
	FramesCaptured  uint64  `json:"frames_captured"`
	FramesProcessed uint64  `json:"frames_processed"`
	BufferOverflows uint64  `json:"buffer_overflows"`
}
