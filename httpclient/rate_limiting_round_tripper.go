/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default parameter values for RateLimitingRoundTripper.
const (
	DefaultRateLimitingBurst       = 1
	DefaultRateLimitingWaitTimeout = 15 * time.Second
)

// RateLimitingRoundTripperOpts represents an options for RateLimitingRoundTripper.
type RateLimitingRoundTripperOpts struct {
	Burst       int
	WaitTimeout time.Duration
}

// RateLimitingRoundTripper spreads outgoing requests of every rate tier evenly
// with a token bucket (RateLimit requests per second per tier).
// Unlike GateRoundTripper it doesn't enforce a quota per window but smooths out bursts,
// and it gives up with RateLimitingWaitError when the request can't be sent within WaitTimeout.
type RateLimitingRoundTripper struct {
	Delegate http.RoundTripper

	RateLimit   float64
	Burst       int
	WaitTimeout time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // by tier name, "" for requests without a tier
}

// NewRateLimitingRoundTripper creates a new RateLimitingRoundTripper with specified rate limit.
func NewRateLimitingRoundTripper(delegate http.RoundTripper, rateLimit float64) (*RateLimitingRoundTripper, error) {
	return NewRateLimitingRoundTripperWithOpts(delegate, rateLimit, RateLimitingRoundTripperOpts{})
}

// NewRateLimitingRoundTripperWithOpts creates a new RateLimitingRoundTripper with specified rate limit and options.
func NewRateLimitingRoundTripperWithOpts(
	delegate http.RoundTripper, rateLimit float64, opts RateLimitingRoundTripperOpts,
) (*RateLimitingRoundTripper, error) {
	if rateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if opts.Burst < 0 {
		return nil, fmt.Errorf("burst must be positive")
	}
	if opts.Burst == 0 {
		opts.Burst = DefaultRateLimitingBurst
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = DefaultRateLimitingWaitTimeout
	}
	return &RateLimitingRoundTripper{
		Delegate:    delegate,
		RateLimit:   rateLimit,
		Burst:       opts.Burst,
		WaitTimeout: opts.WaitTimeout,
		limiters:    make(map[string]*rate.Limiter),
	}, nil
}

// RoundTrip waits for a token of the request's tier and sends the request.
func (rt *RateLimitingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), rt.WaitTimeout)
	defer cancel()

	tier := GetTierFromContext(r.Context())
	if err := rt.limiter(tier).Wait(ctx); err != nil {
		if r.Body != nil {
			_ = r.Body.Close()
		}
		return nil, &RateLimitingWaitError{Tier: tier, Inner: err}
	}
	return rt.Delegate.RoundTrip(r)
}

func (rt *RateLimitingRoundTripper) limiter(tier string) *rate.Limiter {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	l, ok := rt.limiters[tier]
	if !ok {
		l = rate.NewLimiter(rate.Limit(rt.RateLimit), rt.Burst)
		rt.limiters[tier] = l
	}
	return l
}

// RateLimitingWaitError is returned by RateLimitingRoundTripper when the request can't get a token in time.
type RateLimitingWaitError struct {
	Tier  string
	Inner error
}

func (e *RateLimitingWaitError) Error() string {
	if e.Tier == "" {
		return fmt.Sprintf("wait due to client side rate limiting: %s", e.Inner.Error())
	}
	return fmt.Sprintf("wait due to client side rate limiting of tier %q: %s", e.Tier, e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RateLimitingWaitError) Unwrap() error {
	return e.Inner
}
