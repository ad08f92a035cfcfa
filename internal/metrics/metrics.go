// Package metrics collects render statistics in a private Prometheus
// registry and exports them for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the render metrics for one process.
type Recorder struct {
	registry *prometheus.Registry

	Renders          *prometheus.CounterVec
	Frames           prometheus.Counter
	Events           prometheus.Counter
	SkippedIntervals prometheus.Counter
	FallbackFaces    prometheus.Counter
	RenderDuration   prometheus.Histogram
	LastSuccess      prometheus.Gauge
}

// New registers the render metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		Renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lipsync_renders_total",
				Help: "Total number of renders by outcome status",
			},
			[]string{"status"},
		),
		Frames: factory.NewCounter(prometheus.CounterOpts{
			Name: "lipsync_frames_total",
			Help: "Total number of frames emitted by the sequencer",
		}),
		Events: factory.NewCounter(prometheus.CounterOpts{
			Name: "lipsync_events_total",
			Help: "Total number of mouth-shape events built",
		}),
		SkippedIntervals: factory.NewCounter(prometheus.CounterOpts{
			Name: "lipsync_skipped_intervals_total",
			Help: "Intervals dropped because the atlas had no image for their mouth shape",
		}),
		FallbackFaces: factory.NewCounter(prometheus.CounterOpts{
			Name: "lipsync_placeholder_faces_total",
			Help: "Renders that fell back to the generated placeholder face",
		}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lipsync_render_duration_seconds",
			Help:    "Wall-clock render duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lipsync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful render",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Render captures the statistics of one finished render.
type Render struct {
	Status      string
	Events      int
	Frames      int
	Skipped     int
	Placeholder bool
	Elapsed     time.Duration
}

// Observe records one render. A nil recorder is a no-op.
func (r *Recorder) Observe(render Render) {
	if r == nil {
		return
	}
	status := strings.TrimSpace(render.Status)
	if status == "" {
		status = "unknown"
	}
	r.Renders.WithLabelValues(status).Inc()
	r.Frames.Add(float64(render.Frames))
	r.Events.Add(float64(render.Events))
	r.SkippedIntervals.Add(float64(render.Skipped))
	if render.Placeholder {
		r.FallbackFaces.Inc()
	}
	if render.Elapsed > 0 {
		r.RenderDuration.Observe(render.Elapsed.Seconds())
	}
	if status == "succeeded" {
		r.LastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes the registry in text exposition format to path.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
