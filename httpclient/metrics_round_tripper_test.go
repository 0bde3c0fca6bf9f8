/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRoundTripper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()
	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	collector := NewPrometheusMetricsCollector("")
	rt := NewMetricsRoundTripper(http.DefaultTransport, collector)

	req, err := http.NewRequestWithContext(NewContextWithTier(context.Background(), "io"), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	failingRT := NewMetricsRoundTripper(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial failed")
	}), collector)
	_, err = failingRT.RoundTrip(httptest.NewRequest(http.MethodPost, "http://dexscreener.test/", http.NoBody))
	require.Error(t, err)

	require.Equal(t, 2, promtestutil.CollectAndCount(collector.Durations))
	require.True(t, collector.Durations.DeleteLabelValues("io", serverURL.Host, http.MethodGet, "418"))
	require.True(t, collector.Durations.DeleteLabelValues(DefaultTierLabel, "dexscreener.test", http.MethodPost, "0"))
	require.Equal(t, 0, promtestutil.CollectAndCount(collector.Durations))

	require.Equal(t, 0.0, promtestutil.ToFloat64(collector.InFlight.WithLabelValues("io")))
	require.Equal(t, 0.0, promtestutil.ToFloat64(collector.InFlight.WithLabelValues(DefaultTierLabel)))
}

func TestMetricsRoundTripper_InFlight(t *testing.T) {
	collector := NewPrometheusMetricsCollectorWithOpts(PrometheusMetricsCollectorOpts{
		ConstLabels: map[string]string{"app": "screener"},
	})
	var inFlight float64
	rt := NewMetricsRoundTripper(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		inFlight = promtestutil.ToFloat64(collector.InFlight.WithLabelValues("pairs"))
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}), collector)

	req := httptest.NewRequest(http.MethodGet, "http://dexscreener.test/", http.NoBody)
	resp, err := rt.RoundTrip(req.WithContext(NewContextWithTier(req.Context(), "pairs")))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, 1.0, inFlight)
	require.Equal(t, 0.0, promtestutil.ToFloat64(collector.InFlight.WithLabelValues("pairs")))
}
