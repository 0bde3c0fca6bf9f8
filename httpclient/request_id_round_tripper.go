/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"net/http"

	"github.com/rs/xid"
)

// RequestIDHeader is an HTTP header name for the request ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDRoundTripper sets X-Request-ID header in outgoing requests.
// The ID is taken from the request context (see NewContextWithRequestID) or generated if it's missing,
// so all retry attempts of the same request share one ID.
type RequestIDRoundTripper struct {
	Delegate http.RoundTripper

	// GenerateID generates a new request ID. By default, xid is used.
	GenerateID func() string
}

// NewRequestIDRoundTripper creates an HTTP transport with X-Request-ID header support.
func NewRequestIDRoundTripper(delegate http.RoundTripper) http.RoundTripper {
	return &RequestIDRoundTripper{Delegate: delegate, GenerateID: func() string { return xid.New().String() }}
}

// RoundTrip adds X-Request-ID header to the request.
func (rt *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(RequestIDHeader) != "" {
		return rt.Delegate.RoundTrip(r)
	}
	requestID := GetRequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = rt.GenerateID()
	}
	r = r.Clone(r.Context()) // Per RoundTripper contract.
	r.Header.Set(RequestIDHeader, requestID)
	return rt.Delegate.RoundTrip(r)
}
