/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"fmt"
	"net/http"

	"github.com/dexkit/go-dexscreener/ratelimit"
)

// GateRoundTripper wraps an object that implements http.RoundTripper interface
// and admits every outgoing request through a ratelimit.Gate.
// The gate is selected by the rate tier name stored in the request context (see NewContextWithTier).
// Requests without a tier (or with a tier that is not configured) use the DefaultTier gate.
type GateRoundTripper struct {
	Delegate    http.RoundTripper
	Tiers       *ratelimit.Tiers
	DefaultTier string
}

// GateRoundTripperOpts represents an options for GateRoundTripper.
type GateRoundTripperOpts struct {
	// DefaultTier is the name of the tier used when the request context has no tier.
	// If it's empty, the first tier in alphabetical order is used.
	DefaultTier string
}

// NewGateRoundTripper creates a new GateRoundTripper.
func NewGateRoundTripper(delegate http.RoundTripper, tiers *ratelimit.Tiers) (*GateRoundTripper, error) {
	return NewGateRoundTripperWithOpts(delegate, tiers, GateRoundTripperOpts{})
}

// NewGateRoundTripperWithOpts creates a new GateRoundTripper with specified options.
func NewGateRoundTripperWithOpts(
	delegate http.RoundTripper, tiers *ratelimit.Tiers, opts GateRoundTripperOpts,
) (*GateRoundTripper, error) {
	names := tiers.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one rate tier must be configured")
	}
	if opts.DefaultTier == "" {
		opts.DefaultTier = names[0]
	}
	if _, ok := tiers.Get(opts.DefaultTier); !ok {
		return nil, fmt.Errorf("default rate tier %q is not configured", opts.DefaultTier)
	}
	return &GateRoundTripper{Delegate: delegate, Tiers: tiers, DefaultTier: opts.DefaultTier}, nil
}

// RoundTrip waits until the gate of the request's tier admits the request and then sends it.
// The request is recorded in the gate when the round trip is done, even if it failed.
// The gate itself can't be cancelled, so the wait is raced against the request context:
// when the context is done first, an error is returned and the admission, once granted,
// is released without sending anything (it still counts toward the quota).
func (rt *GateRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	tier := GetTierFromContext(r.Context())
	gate, ok := rt.Tiers.Get(tier)
	if !ok {
		tier = rt.DefaultTier
		gate, _ = rt.Tiers.Get(tier)
	}
	admCh := gate.AcquireAsync()
	select {
	case adm := <-admCh:
		defer adm.Release()
		return rt.Delegate.RoundTrip(r)
	case <-r.Context().Done():
		go func() { (<-admCh).Release() }()
		return nil, fmt.Errorf("wait for %q rate tier: %w", tier, r.Context().Err())
	}
}
