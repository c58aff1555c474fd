// Package metrics records generation runs in a private Prometheus registry.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run results used as the "result" label.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

const namespace = "propgen"

// Metrics holds the collectors for generation runs. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	records     prometheus.Counter
	gridEntries prometheus.Gauge
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// New registers the run collectors in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Generation runs by result.",
		}, []string{"result"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Property records generated and persisted.",
		}),
		gridEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_entries",
			Help:      "Grid entries loaded by the most recent run.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of generation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
	m.registry.MustRegister(m.runs, m.records, m.gridEntries, m.duration, m.lastSuccess)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(result string, d time.Duration, gridEntries, records int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(d.Seconds())
	if gridEntries > 0 {
		m.gridEntries.Set(float64(gridEntries))
	}
	if result == ResultSuccess {
		m.records.Add(float64(records))
		m.lastSuccess.SetToCurrentTime()
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
