/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTripper(t *testing.T) {
	var gotRequestID string
	delegate := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		gotRequestID = r.Header.Get(RequestIDHeader)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	rt := NewRequestIDRoundTripper(delegate)

	t.Run("request ID from context", func(t *testing.T) {
		ctx := NewContextWithRequestID(context.Background(), "ctx-request-id")
		req := httptest.NewRequest(http.MethodGet, "http://dexscreener.test", http.NoBody).WithContext(ctx)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		require.Equal(t, "ctx-request-id", gotRequestID)
		require.Empty(t, req.Header.Get(RequestIDHeader), "original request should not be modified")
	})

	t.Run("existing header is kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://dexscreener.test", http.NoBody)
		req.Header.Set(RequestIDHeader, "header-request-id")
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		require.Equal(t, "header-request-id", gotRequestID)
	})

	t.Run("request ID is generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://dexscreener.test", http.NoBody)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		require.Len(t, gotRequestID, 20) // xid string length
		firstID := gotRequestID

		_, err = rt.RoundTrip(req)
		require.NoError(t, err)
		require.NotEqual(t, firstID, gotRequestID)
	})
}

func TestUserAgentRoundTripper(t *testing.T) {
	var gotUserAgent string
	delegate := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		gotUserAgent = r.Header.Get("User-Agent")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})

	tests := []struct {
		name          string
		appendUA      bool
		reqUserAgent  string
		wantUserAgent string
	}{
		{name: "set if empty", wantUserAgent: "dexscreener/1.0"},
		{name: "keep existing", reqUserAgent: "bot/2.0", wantUserAgent: "bot/2.0"},
		{name: "append", appendUA: true, reqUserAgent: "bot/2.0", wantUserAgent: "bot/2.0 dexscreener/1.0"},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			rt := NewUserAgentRoundTripper(delegate, "dexscreener/1.0")
			rt.Append = tt.appendUA
			req := httptest.NewRequest(http.MethodGet, "http://dexscreener.test", http.NoBody)
			if tt.reqUserAgent != "" {
				req.Header.Set("User-Agent", tt.reqUserAgent)
			}
			_, err := rt.RoundTrip(req)
			require.NoError(t, err)
			require.Equal(t, tt.wantUserAgent, gotUserAgent)
		})
	}
}
