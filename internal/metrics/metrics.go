// Package metrics exposes conversion counters on a prometheus registry.
//
// A nil *Collector is valid and records nothing, so callers never need to
// guard metric calls.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "prince"

// Outcomes recorded on conversions.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Collector groups the conversion metrics.
type Collector struct {
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	sessions    prometheus.Gauge
	output      *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg. A nil reg
// leaves them unregistered, which is useful in tests.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions attempted, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of conversions, by mode.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"mode"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "control_sessions_running",
			Help:      "Control sessions currently running.",
		}),
		output: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_total",
			Help:      "Document bytes produced, by mode.",
		}, []string{"mode"}),
	}

	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.conversions, c.duration, c.sessions, c.output} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return c, nil
}

// ObserveConvert records one conversion.
func (c *Collector) ObserveConvert(mode, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.conversions.WithLabelValues(mode, outcome).Inc()
	c.duration.WithLabelValues(mode).Observe(d.Seconds())
}

// AddOutput records produced document bytes.
func (c *Collector) AddOutput(mode string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.output.WithLabelValues(mode).Add(float64(n))
}

// SessionStarted increments the running sessions gauge.
func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.sessions.Inc()
}

// SessionStopped decrements the running sessions gauge.
func (c *Collector) SessionStopped() {
	if c == nil {
		return
	}
	c.sessions.Dec()
}
