/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dexkit/go-dexscreener/log/logtest"
	"github.com/dexkit/go-dexscreener/retry"
)

func TestNewRetryableRoundTripper(t *testing.T) {
	_, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{MaxRetryAttempts: -2})
	require.EqualError(t, err, "incorrect max retry attempts")

	rt, err := NewRetryableRoundTripper(http.DefaultTransport)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxRetryAttempts, rt.MaxRetryAttempts)
}

func TestRetryableRoundTripper_RoundTrip(t *testing.T) {
	fastPolicy := retry.NewConstantBackoffPolicy(time.Millisecond, 0)

	t.Run("retry until success", func(t *testing.T) {
		var mu sync.Mutex
		var retryHeaders []string
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			mu.Lock()
			retryHeaders = append(retryHeaders, r.Header.Get(RetryAttemptNumberHeader))
			attempts := len(retryHeaders)
			mu.Unlock()
			if attempts < 3 {
				rw.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			rw.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy})
		require.NoError(t, err)
		resp, err := (&http.Client{Transport: rt}).Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []string{"", "1", "2"}, retryHeaders)
	})

	t.Run("max retry attempts exceeded", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			rw.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		logRecorder := logtest.NewRecorder()
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{
			Logger:           logRecorder,
			MaxRetryAttempts: 2,
			BackoffPolicy:    fastPolicy,
		})
		require.NoError(t, err)
		resp, err := (&http.Client{Transport: rt}).Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		require.Equal(t, int32(3), attempts.Load())
		entry, found := logRecorder.FindEntry("request is not retried")
		require.True(t, found)
		reason, found := entry.FindField("reason")
		require.True(t, found)
		require.Equal(t, "max retry attempts exceeded", string(reason.Bytes))
		require.Len(t, logRecorder.FindAllEntries("retrying request"), 2)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			rw.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy})
		require.NoError(t, err)
		resp, err := (&http.Client{Transport: rt}).Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, int32(1), attempts.Load())
	})

	t.Run("request body is rewound between attempts", func(t *testing.T) {
		const reqBody = `{"chainId":"ethereum"}`
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.Equal(t, reqBody, string(body))
			if attempts.Add(1) < 2 {
				rw.WriteHeader(http.StatusInternalServerError)
				return
			}
			rw.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy})
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPost, server.URL, io.NopCloser(strings.NewReader(reqBody)))
		require.NoError(t, err)
		resp, err := (&http.Client{Transport: rt}).Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, int32(2), attempts.Load())
	})

	t.Run("Retry-After header is respected", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				rw.Header().Set("Retry-After", strconv.Itoa(1))
				rw.WriteHeader(http.StatusTooManyRequests)
				return
			}
			rw.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy})
		require.NoError(t, err)
		startedAt := time.Now()
		resp, err := (&http.Client{Transport: rt}).Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.GreaterOrEqual(t, time.Since(startedAt), time.Second)
	})

	t.Run("too long Retry-After stops retrying", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			rw.Header().Set("Retry-After", "120")
			rw.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy})
		require.NoError(t, err)
		require.Equal(t, DefaultMaxRetryAfter, rt.MaxRetryAfter)
		startedAt := time.Now()
		resp, err := (&http.Client{Transport: rt}).Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		require.Equal(t, int32(1), attempts.Load())
		require.Less(t, time.Since(startedAt), time.Second)
	})

	t.Run("context is canceled while waiting for the next attempt", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{
			BackoffPolicy: retry.NewConstantBackoffPolicy(time.Minute, 0),
		})
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		resp, err := rt.RoundTrip(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestParseRetryAfterFromResponse(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantOK    bool
		wantValue time.Duration
	}{
		{name: "seconds", header: "3", wantOK: true, wantValue: 3 * time.Second},
		{name: "missing", header: "", wantOK: false},
		{name: "negative", header: "-1", wantOK: false},
		{name: "garbage", header: "soon", wantOK: false},
		{name: "date in the past", header: "Wed, 21 Oct 2015 07:28:00 GMT", wantOK: true, wantValue: 0},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			got, ok := parseRetryAfterFromResponse(resp)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantValue, got)
		})
	}
}

func TestCheckErrorIsTemporary(t *testing.T) {
	require.True(t, CheckErrorIsTemporary(io.ErrUnexpectedEOF))
	require.True(t, CheckErrorIsTemporary(io.EOF))
	require.False(t, CheckErrorIsTemporary(context.Canceled))
}
