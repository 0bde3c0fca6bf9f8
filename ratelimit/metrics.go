/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const gateLabel = "gate"

// GateMetricsCollector represents a collector of metrics for analyzing how callers are throttled by gates.
type GateMetricsCollector interface {
	// ObserveAdmission observes how long the caller waited before the call was admitted
	// and whether the call was throttled.
	ObserveAdmission(gate string, waited time.Duration, throttled bool)

	// SetInFlight sets the number of admitted but not yet released calls.
	SetInFlight(gate string, n int)

	// IncReleases increments the total number of released (recorded) calls.
	IncReleases(gate string)
}

// PrometheusGateMetricsOpts represents options for PrometheusGateMetrics.
type PrometheusGateMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// WaitBuckets are histogram buckets (in seconds) for admission wait durations.
	WaitBuckets []float64
}

// PrometheusGateMetrics represents Prometheus metrics for request gates.
type PrometheusGateMetrics struct {
	WaitDurations *prometheus.HistogramVec
	InFlight      *prometheus.GaugeVec
	ReleasesTotal *prometheus.CounterVec
}

// NewPrometheusGateMetrics creates a new instance of PrometheusGateMetrics with default options.
func NewPrometheusGateMetrics() *PrometheusGateMetrics {
	return NewPrometheusGateMetricsWithOpts(PrometheusGateMetricsOpts{})
}

// NewPrometheusGateMetricsWithOpts creates a new instance of PrometheusGateMetrics with the provided options.
func NewPrometheusGateMetricsWithOpts(opts PrometheusGateMetricsOpts) *PrometheusGateMetrics {
	buckets := opts.WaitBuckets
	if buckets == nil {
		buckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120}
	}
	return &PrometheusGateMetrics{
		WaitDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "request_gate_wait_seconds",
			Help:        "A histogram of durations callers waited to be admitted by the request gate.",
			Buckets:     buckets,
			ConstLabels: opts.ConstLabels,
		}, []string{gateLabel, "throttled"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "request_gate_in_flight",
			Help:        "Number of admitted calls that have not been released yet.",
			ConstLabels: opts.ConstLabels,
		}, []string{gateLabel}),
		ReleasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "request_gate_releases_total",
			Help:        "Number of calls recorded by the request gate.",
			ConstLabels: opts.ConstLabels,
		}, []string{gateLabel}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusGateMetrics) MustRegister() {
	prometheus.MustRegister(pm.WaitDurations, pm.InFlight, pm.ReleasesTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusGateMetrics) Unregister() {
	prometheus.Unregister(pm.WaitDurations)
	prometheus.Unregister(pm.InFlight)
	prometheus.Unregister(pm.ReleasesTotal)
}

// ObserveAdmission observes how long the caller waited before the call was admitted.
func (pm *PrometheusGateMetrics) ObserveAdmission(gate string, waited time.Duration, throttled bool) {
	pm.WaitDurations.WithLabelValues(gate, strconv.FormatBool(throttled)).Observe(waited.Seconds())
}

// SetInFlight sets the number of admitted but not yet released calls.
func (pm *PrometheusGateMetrics) SetInFlight(gate string, n int) {
	pm.InFlight.WithLabelValues(gate).Set(float64(n))
}

// IncReleases increments the total number of released calls.
func (pm *PrometheusGateMetrics) IncReleases(gate string) {
	pm.ReleasesTotal.WithLabelValues(gate).Inc()
}

type disabledGateMetrics struct{}

func (disabledGateMetrics) ObserveAdmission(string, time.Duration, bool) {}
func (disabledGateMetrics) SetInFlight(string, int)                      {}
func (disabledGateMetrics) IncReleases(string)                           {}
