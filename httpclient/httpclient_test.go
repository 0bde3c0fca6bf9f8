/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dexkit/go-dexscreener/config"
	"github.com/dexkit/go-dexscreener/log/logtest"
	"github.com/dexkit/go-dexscreener/ratelimit"
)

type roundTripperFunc func(r *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestConfig(gates map[string]GateConfig) *Config {
	cfg := NewDefaultConfig(WithDefaultGates(gates))
	cfg.Retries.Policy = PolicyConfig{
		Strategy:                RetryPolicyConstant,
		ConstantBackoffInterval: config.TimeDuration(time.Millisecond),
	}
	return cfg
}

func TestNewWithOpts(t *testing.T) {
	t.Run("request passes through the whole chain", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				rw.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			require.Equal(t, "dexscreener-test/1.0", r.Header.Get("User-Agent"))
			require.Equal(t, "req-1", r.Header.Get(RequestIDHeader))
			require.Equal(t, "1", r.Header.Get(RetryAttemptNumberHeader))
			rw.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logRecorder := logtest.NewRecorder()
		cfg := newTestConfig(map[string]GateConfig{"pairs": {Limit: 300, Period: config.TimeDuration(time.Minute)}})
		client, err := NewWithOpts(cfg, Opts{UserAgent: "dexscreener-test/1.0", Logger: logRecorder})
		require.NoError(t, err)

		ctx := NewContextWithRequestID(context.Background(), "req-1")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, int32(2), attempts.Load())

		entries := logRecorder.FindAllEntries("client http request done")
		require.Len(t, entries, 2)
		require.Equal(t, "req-1", entries[1].FieldString("request_id"))
	})

	t.Run("every retry attempt is admitted by the gate", func(t *testing.T) {
		const period = 300 * time.Millisecond
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				rw.WriteHeader(http.StatusBadGateway)
				return
			}
			rw.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		tiers, err := ratelimit.NewTiers(map[string]ratelimit.Rate{"io": {Count: 1, Duration: period}}, ratelimit.GateOpts{})
		require.NoError(t, err)
		cfg := newTestConfig(nil)
		client, err := NewWithOpts(cfg, Opts{Tiers: tiers})
		require.NoError(t, err)

		startedAt := time.Now()
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, int32(3), attempts.Load())
		require.GreaterOrEqual(t, time.Since(startedAt), 2*period-50*time.Millisecond)

		gate, ok := tiers.Get("io")
		require.True(t, ok)
		require.Equal(t, 1, gate.Len())
	})

	t.Run("metrics collector is required when metrics are enabled", func(t *testing.T) {
		cfg := newTestConfig(nil)
		cfg.Metrics.Enabled = true
		_, err := NewWithOpts(cfg, Opts{})
		require.EqualError(t, err, "metrics collector is required when metrics are enabled")
	})

	t.Run("invalid gate configuration", func(t *testing.T) {
		cfg := newTestConfig(map[string]GateConfig{"io": {Limit: 0, Period: config.TimeDuration(time.Minute)}})
		_, err := NewWithOpts(cfg, Opts{})
		require.ErrorIs(t, err, ratelimit.ErrInvalidMaxCalls)
		require.Panics(t, func() { MustWithOpts(cfg, Opts{}) })
	})

	t.Run("client without gates and retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		cfg := NewConfig()
		cfg.Timeout = config.TimeDuration(time.Second)
		client := Must(cfg)
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
