package runs

import "time"

// Status is the lifecycle state of a render run.
type Status string

const (
	StatusRunning         Status = "running"
	StatusSucceeded       Status = "succeeded"
	StatusNothingToRender Status = "nothing_to_render"
	StatusFailed          Status = "failed"
)

// Terminal reports whether the run has finished.
func (s Status) Terminal() bool {
	return s != StatusRunning && s != ""
}

// Run is one recorded render.
type Run struct {
	ID               string     `json:"id"`
	Status           Status     `json:"status"`
	SegmentsPath     string     `json:"segments_path,omitempty"`
	TimelinePath     string     `json:"timeline_path,omitempty"`
	AudioPath        string     `json:"audio_path,omitempty"`
	OutputPath       string     `json:"output_path,omitempty"`
	ArchivePath      string     `json:"archive_path,omitempty"`
	FPS              int        `json:"fps"`
	AtlasTier        string     `json:"atlas_tier,omitempty"`
	AtlasFingerprint string     `json:"atlas_fingerprint,omitempty"`
	EventCount       int        `json:"event_count"`
	FrameCount       int        `json:"frame_count"`
	SkippedIntervals int        `json:"skipped_intervals"`
	VideoSeconds     float64    `json:"video_seconds"`
	AudioSeconds     float64    `json:"audio_seconds"`
	AudioTrimmed     bool       `json:"audio_trimmed"`
	FailureKind      string     `json:"failure_kind,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// Elapsed returns the run duration, or zero while it is still running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the facts recorded when a run finishes.
type Outcome struct {
	Status           Status
	OutputPath       string
	ArchivePath      string
	AtlasTier        string
	AtlasFingerprint string
	EventCount       int
	FrameCount       int
	SkippedIntervals int
	VideoSeconds     float64
	AudioSeconds     float64
	AudioTrimmed     bool
	Err              error
}
