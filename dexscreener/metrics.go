/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package dexscreener

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dexkit/go-dexscreener/httpclient"
	"github.com/dexkit/go-dexscreener/internal/libinfo"
	"github.com/dexkit/go-dexscreener/lrucache"
	"github.com/dexkit/go-dexscreener/ratelimit"
)

// Names of the client caches used as the "cache" metrics label.
const (
	CachePairs = "pairs"
	CacheLists = "lists"
)

// Metrics groups Prometheus metrics of the client: HTTP requests, gate admissions and cache usage.
type Metrics struct {
	HTTP  *httpclient.PrometheusMetricsCollector
	Gates *ratelimit.PrometheusGateMetrics
	Cache *lrucache.PrometheusMetrics
}

// NewMetrics creates metrics of the client with the given namespace.
// All of them carry the library version const label.
func NewMetrics(namespace string) *Metrics {
	constLabels := libinfo.AddPrometheusLibVersionLabel(nil)
	return &Metrics{
		HTTP: httpclient.NewPrometheusMetricsCollectorWithOpts(httpclient.PrometheusMetricsCollectorOpts{
			Namespace:   namespace,
			ConstLabels: constLabels,
		}),
		Gates: ratelimit.NewPrometheusGateMetricsWithOpts(ratelimit.PrometheusGateMetricsOpts{
			Namespace:   namespace,
			ConstLabels: constLabels,
		}),
		Cache: lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{
			Namespace:   namespace,
			ConstLabels: constLabels,
		}),
	}
}

// MustRegister registers all metrics in Prometheus and panics if any error occurs.
func (m *Metrics) MustRegister() {
	m.HTTP.MustRegister()
	m.Gates.MustRegister()
	m.Cache.MustRegister()
}

// Unregister cancels registration of all metrics in Prometheus.
func (m *Metrics) Unregister() {
	m.HTTP.Unregister()
	m.Gates.Unregister()
	m.Cache.Unregister()
}

// Collectors returns all underlying collectors, e.g. for registering them in a custom registry.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTP.Durations, m.HTTP.InFlight,
		m.Gates.WaitDurations, m.Gates.InFlight, m.Gates.ReleasesTotal,
		m.Cache.EntriesAmount, m.Cache.HitsTotal, m.Cache.MissesTotal, m.Cache.EvictionsTotal,
	}
}
