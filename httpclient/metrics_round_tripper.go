/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultTierLabel is used as a metrics label for requests without a rate tier.
const DefaultTierLabel = "default"

// statusNoResponse is reported when the request failed before any response was received.
const statusNoResponse = "0"

// MetricsCollector collects metrics of outgoing requests.
type MetricsCollector interface {
	// RequestStarted is called when the request leaves for the network.
	RequestStarted(tier string)

	// RequestFinished is called when the response (or the error) comes back.
	RequestFinished(tier, host, method, status string, elapsed time.Duration)
}

// PrometheusMetricsCollectorOpts represents options for PrometheusMetricsCollector.
type PrometheusMetricsCollectorOpts struct {
	Namespace   string
	ConstLabels prometheus.Labels

	// DurationBuckets are histogram buckets (in seconds) for request durations.
	DurationBuckets []float64
}

// PrometheusMetricsCollector is a Prometheus metrics collector.
type PrometheusMetricsCollector struct {
	Durations *prometheus.HistogramVec
	InFlight  *prometheus.GaugeVec
}

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector.
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	return NewPrometheusMetricsCollectorWithOpts(PrometheusMetricsCollectorOpts{Namespace: namespace})
}

// NewPrometheusMetricsCollectorWithOpts creates a new Prometheus metrics collector with the provided options.
func NewPrometheusMetricsCollectorWithOpts(opts PrometheusMetricsCollectorOpts) *PrometheusMetricsCollector {
	buckets := opts.DurationBuckets
	if buckets == nil {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	}
	return &PrometheusMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "http_client_request_duration_seconds",
			Help:        "A histogram of the market data API requests durations.",
			Buckets:     buckets,
			ConstLabels: opts.ConstLabels,
		}, []string{"tier", "host", "method", "status"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "http_client_requests_in_flight",
			Help:        "Number of market data API requests waiting for a response.",
			ConstLabels: opts.ConstLabels,
		}, []string{"tier"}),
	}
}

// MustRegister registers the Prometheus metrics.
func (p *PrometheusMetricsCollector) MustRegister() {
	prometheus.MustRegister(p.Durations, p.InFlight)
}

// Unregister the Prometheus metrics.
func (p *PrometheusMetricsCollector) Unregister() {
	prometheus.Unregister(p.Durations)
	prometheus.Unregister(p.InFlight)
}

func (p *PrometheusMetricsCollector) RequestStarted(tier string) {
	p.InFlight.WithLabelValues(tier).Inc()
}

func (p *PrometheusMetricsCollector) RequestFinished(tier, host, method, status string, elapsed time.Duration) {
	p.InFlight.WithLabelValues(tier).Dec()
	p.Durations.WithLabelValues(tier, host, method, status).Observe(elapsed.Seconds())
}

// MetricsRoundTripper measures every request that reaches the network.
// It sits below the gate and the retries, so each attempt is observed separately.
type MetricsRoundTripper struct {
	Delegate  http.RoundTripper
	Collector MetricsCollector
}

// NewMetricsRoundTripper creates an HTTP transport that measures requests done.
func NewMetricsRoundTripper(delegate http.RoundTripper, collector MetricsCollector) http.RoundTripper {
	return &MetricsRoundTripper{Delegate: delegate, Collector: collector}
}

// RoundTrip executes a single HTTP transaction and reports its duration and status.
func (rt *MetricsRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Collector == nil {
		return rt.Delegate.RoundTrip(r)
	}

	tier := GetTierFromContext(r.Context())
	if tier == "" {
		tier = DefaultTierLabel
	}
	rt.Collector.RequestStarted(tier)
	start := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	status := statusNoResponse
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	rt.Collector.RequestFinished(tier, r.URL.Host, r.Method, status, time.Since(start))
	return resp, err
}
