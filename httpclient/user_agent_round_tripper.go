/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import "net/http"

// UserAgentRoundTripper identifies the library in the User-Agent header of outgoing requests.
// A User-Agent already set by the caller is kept as is, unless Append is true,
// in which case the library token is appended to it ("mybot/2.0 go-dexscreener/v1.0.0").
type UserAgentRoundTripper struct {
	Delegate  http.RoundTripper
	UserAgent string
	Append    bool
}

// NewUserAgentRoundTripper creates a new UserAgentRoundTripper that sets User-Agent only if it's empty.
func NewUserAgentRoundTripper(delegate http.RoundTripper, userAgent string) *UserAgentRoundTripper {
	return &UserAgentRoundTripper{Delegate: delegate, UserAgent: userAgent}
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *UserAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	userAgent := rt.userAgentFor(req.Header.Get("User-Agent"))
	if userAgent == req.Header.Get("User-Agent") {
		return rt.Delegate.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return rt.Delegate.RoundTrip(req)
}

func (rt *UserAgentRoundTripper) userAgentFor(current string) string {
	switch {
	case current == "":
		return rt.UserAgent
	case rt.Append:
		return current + " " + rt.UserAgent
	default:
		return current
	}
}
