package engine

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects per-run counters on a private registry. A batch job has
// no scrape endpoint, so the registry is written to a node-exporter
// textfile at the end of the run.
type Metrics struct {
	reg *prometheus.Registry

	persons   *prometheus.CounterVec
	rejects   prometheus.Counter
	followUps prometheus.Counter
	duration  prometheus.Histogram
	lastRun   prometheus.Gauge
	success   prometheus.Gauge
}

// NewMetrics creates the casesync metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		persons: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casesync_persons_total",
				Help: "Imported persons by reconciliation outcome",
			},
			[]string{"outcome"},
		),
		rejects: f.NewCounter(prometheus.CounterOpts{
			Name: "casesync_import_rejects_total",
			Help: "Import records rejected for bad data",
		}),
		followUps: f.NewCounter(prometheus.CounterOpts{
			Name: "casesync_follow_up_failures_total",
			Help: "Accepted documents whose corrective rename failed",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "casesync_run_duration_seconds",
			Help:    "Duration of sync runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "casesync_last_run_timestamp_seconds",
			Help: "Finish time of the last run",
		}),
		success: f.NewGauge(prometheus.GaugeOpts{
			Name: "casesync_last_run_success",
			Help: "1 if the last run completed, 0 if it aborted",
		}),
	}
}

// Observe records a finished run.
func (m *Metrics) Observe(s Summary) {
	if m == nil {
		return
	}
	for outcome, n := range map[Outcome]int{
		OutcomeSubmitted: s.Submitted,
		OutcomeRejected:  s.Rejected,
		OutcomeFailed:    s.Failed,
		OutcomeUnchanged: s.Unchanged,
		OutcomeSkipped:   s.Skipped,
	} {
		m.persons.WithLabelValues(string(outcome)).Add(float64(n))
	}
	m.rejects.Add(float64(s.DataErrors))
	m.followUps.Add(float64(s.FollowUpFailures))
	m.duration.Observe(s.Finished.Sub(s.Started).Seconds())
	m.lastRun.Set(float64(s.Finished.Unix()))
	if s.Err == nil {
		m.success.Set(1)
	} else {
		m.success.Set(0)
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteTextfile writes all metrics in the Prometheus text format. The file
// is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
