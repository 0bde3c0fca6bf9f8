/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "github.com/prometheus/client_golang/prometheus"

const cacheLabel = "cache"

// MetricsCollector receives cache usage statistics.
type MetricsCollector interface {
	// SetAmount sets the total number of entries in the cache.
	SetAmount(int)

	// IncHits increments the total number of successfully found keys in the cache.
	IncHits()

	// IncMisses increments the total number of not found (or expired) keys in the cache.
	IncMisses()

	// AddEvictions increments the total number of evicted entries.
	AddEvictions(int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics is a set of Prometheus metrics shared by several named caches (e.g. "pairs" and "lists").
// Use ForCache to get a MetricsCollector for a particular cache.
type PrometheusMetrics struct {
	EntriesAmount  *prometheus.GaugeVec
	HitsTotal      *prometheus.CounterVec
	MissesTotal    *prometheus.CounterVec
	EvictionsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Name: name, Help: help, ConstLabels: opts.ConstLabels,
		}, []string{cacheLabel})
	}
	return &PrometheusMetrics{
		EntriesAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "cache_entries_amount",
			Help:        "Number of API responses kept in the cache.",
			ConstLabels: opts.ConstLabels,
		}, []string{cacheLabel}),
		HitsTotal:      counter("cache_hits_total", "Number of API calls served from the cache."),
		MissesTotal:    counter("cache_misses_total", "Number of API calls that had to reach the API (absent or expired entry)."),
		EvictionsTotal: counter("cache_evictions_total", "Number of least recently used entries evicted to respect the size limit."),
	}
}

// ForCache returns a MetricsCollector that reports metrics with the given cache name label.
func (pm *PrometheusMetrics) ForCache(name string) MetricsCollector {
	return &cacheMetrics{
		amount:    pm.EntriesAmount.WithLabelValues(name),
		hits:      pm.HitsTotal.WithLabelValues(name),
		misses:    pm.MissesTotal.WithLabelValues(name),
		evictions: pm.EvictionsTotal.WithLabelValues(name),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.EntriesAmount, pm.HitsTotal, pm.MissesTotal, pm.EvictionsTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.EntriesAmount)
	prometheus.Unregister(pm.HitsTotal)
	prometheus.Unregister(pm.MissesTotal)
	prometheus.Unregister(pm.EvictionsTotal)
}

type cacheMetrics struct {
	amount    prometheus.Gauge
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

func (m *cacheMetrics) SetAmount(amount int) { m.amount.Set(float64(amount)) }
func (m *cacheMetrics) IncHits()             { m.hits.Inc() }
func (m *cacheMetrics) IncMisses()           { m.misses.Inc() }
func (m *cacheMetrics) AddEvictions(n int)   { m.evictions.Add(float64(n)) }

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)    {}
func (disabledMetrics) IncHits()         {}
func (disabledMetrics) IncMisses()       {}
func (disabledMetrics) AddEvictions(int) {}
