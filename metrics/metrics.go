// Package metrics records run outcomes for the node-exporter textfile
// collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomePublished = "published"
	OutcomeDryRun    = "dry_run"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Recorder holds all Prometheus metrics for one run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	Runs               *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	LastSuccess        prometheus.Gauge
}

// NewRecorder creates and registers the run metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dailypost_runs_total",
				Help: "Runs by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dailypost_rejections_total",
				Help: "Post compliance rejections by kind",
			},
			[]string{"kind"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dailypost_generation_duration_seconds",
				Help:    "Wall time of text generation calls",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dailypost_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
	}

	r.registry.MustRegister(r.Runs, r.Rejections, r.GenerationDuration, r.LastSuccess)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RunFinished counts one run with its outcome. Successful outcomes also set
// the last-success gauge to now.
func (r *Recorder) RunFinished(command, outcome string, now time.Time) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(command, outcome).Inc()
	if outcome == OutcomePublished || outcome == OutcomeDryRun {
		r.LastSuccess.Set(float64(now.Unix()))
	}
}

// Rejected counts a compliance rejection.
func (r *Recorder) Rejected(kind string) {
	if r == nil {
		return
	}
	r.Rejections.WithLabelValues(kind).Inc()
}

// ObserveGeneration records a generation call's duration.
func (r *Recorder) ObserveGeneration(d time.Duration) {
	if r == nil {
		return
	}
	r.GenerationDuration.Observe(d.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
