package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms of one screening run. It owns its registry so
// a batch run can dump everything to a node-exporter textfile when it finishes.
type Metrics struct {
	registry *prometheus.Registry

	// Verdicts by affiliation type and skip reason
	Verdicts *prometheus.CounterVec

	// Upstream fetch latency by operation and outcome
	FetchDuration *prometheus.HistogramVec

	// Retries of transient upstream failures by operation
	FetchRetries *prometheus.CounterVec

	// Total run wall time
	RunDuration prometheus.Gauge
}

// New creates and registers all screening metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "affiliation_checker_verdicts_total",
			Help: "Screening verdicts by affiliation type and skip reason",
		}, []string{"type", "reason"}),

		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "affiliation_checker_fetch_duration_seconds",
			Help:    "Duration of metadata fetches including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", "outcome"}),

		FetchRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "affiliation_checker_fetch_retries_total",
			Help: "Retries of transient metadata fetch failures",
		}, []string{"operation"}),

		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "affiliation_checker_run_duration_seconds",
			Help: "Wall time of the last screening run",
		}),
	}
}

// IncrementVerdict records a verdict outcome.
func (m *Metrics) IncrementVerdict(affiliationType, reason string) {
	if m != nil {
		m.Verdicts.WithLabelValues(affiliationType, reason).Inc()
	}
}

// ObserveFetch records the duration of a fetch operation.
func (m *Metrics) ObserveFetch(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// IncrementRetry counts one retry of operation.
func (m *Metrics) IncrementRetry(operation string) {
	if m != nil {
		m.FetchRetries.WithLabelValues(operation).Inc()
	}
}

// SetRunDuration records the run wall time.
func (m *Metrics) SetRunDuration(d time.Duration) {
	if m != nil {
		m.RunDuration.Set(d.Seconds())
	}
}

// Gatherer exposes the registry for tests and exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile dumps all metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
