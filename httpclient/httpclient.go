/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient provides an HTTP client whose transport is a chain of round trippers:
// request ID and User-Agent headers, retries, gate-based throttling by rate tier,
// token-bucket smoothing, Prometheus metrics and logging.
package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dexkit/go-dexscreener/log"
	"github.com/dexkit/go-dexscreener/ratelimit"
)

// Opts provides options for NewWithOpts and MustWithOpts functions.
type Opts struct {
	// UserAgent is a user agent string.
	UserAgent string

	// Delegate is the innermost RoundTripper in the chain.
	// By default, a clone of http.DefaultTransport is used.
	Delegate http.RoundTripper

	// Logger is used by round trippers when the request context doesn't carry a logger.
	Logger log.FieldLogger

	// MetricsCollector is a collector of HTTP request metrics.
	// It's required when metrics are enabled in the configuration.
	MetricsCollector MetricsCollector

	// GateMetricsCollector is a collector of gate admission metrics. It can be nil.
	GateMetricsCollector ratelimit.GateMetricsCollector

	// Tiers are gates shared with other clients.
	// If nil, new gates are created from the Gates section of the configuration.
	Tiers *ratelimit.Tiers
}

// New creates an HTTP client from the configuration and returns an error if any occurs.
func New(cfg *Config) (*http.Client, error) {
	return NewWithOpts(cfg, Opts{})
}

// Must creates an HTTP client from the configuration and panics if any error occurs.
func Must(cfg *Config) *http.Client {
	client, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// NewWithOpts creates an HTTP client from the configuration and options.
// The order of round trippers (from the outermost one) is:
// request ID, User-Agent, retries, gate, rate limiting, metrics, logging.
// Since the gate is inside the retryable round tripper, every retry attempt is admitted by the gate.
func NewWithOpts(cfg *Config, opts Opts) (*http.Client, error) {
	var err error
	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}

	if cfg.Log.Enabled && cfg.Log.Mode != LoggingModeNone {
		delegate = NewLoggingRoundTripperWithOpts(delegate, LoggingRoundTripperOpts{
			Logger:               opts.Logger,
			Mode:                 cfg.Log.Mode,
			SlowRequestThreshold: time.Duration(cfg.Log.SlowRequestThreshold),
		})
	}

	if cfg.Metrics.Enabled {
		if opts.MetricsCollector == nil {
			return nil, fmt.Errorf("metrics collector is required when metrics are enabled")
		}
		delegate = NewMetricsRoundTripper(delegate, opts.MetricsCollector)
	}

	if cfg.RateLimits.Enabled {
		delegate, err = NewRateLimitingRoundTripperWithOpts(delegate, cfg.RateLimits.Limit, RateLimitingRoundTripperOpts{
			Burst:       cfg.RateLimits.Burst,
			WaitTimeout: time.Duration(cfg.RateLimits.WaitTimeout),
		})
		if err != nil {
			return nil, fmt.Errorf("create rate limiting round tripper: %w", err)
		}
	}

	tiers := opts.Tiers
	if tiers == nil && len(cfg.Gates) != 0 {
		tiers, err = ratelimit.NewTiers(cfg.GateRates(), ratelimit.GateOpts{
			Logger:           opts.Logger,
			MetricsCollector: opts.GateMetricsCollector,
		})
		if err != nil {
			return nil, fmt.Errorf("create rate tiers: %w", err)
		}
	}
	if tiers != nil {
		delegate, err = NewGateRoundTripperWithOpts(delegate, tiers, GateRoundTripperOpts{DefaultTier: cfg.DefaultTier})
		if err != nil {
			return nil, fmt.Errorf("create gate round tripper: %w", err)
		}
	}

	if cfg.Retries.Enabled {
		delegate, err = NewRetryableRoundTripperWithOpts(delegate, RetryableRoundTripperOpts{
			Logger:           opts.Logger,
			MaxRetryAttempts: cfg.Retries.MaxAttempts,
			MaxRetryAfter:    time.Duration(cfg.Retries.MaxRetryAfter),
			BackoffPolicy:    cfg.Retries.GetPolicy(),
		})
		if err != nil {
			return nil, fmt.Errorf("create retryable round tripper: %w", err)
		}
	}

	if opts.UserAgent != "" {
		delegate = NewUserAgentRoundTripper(delegate, opts.UserAgent)
	}

	delegate = NewRequestIDRoundTripper(delegate)

	return &http.Client{Transport: delegate, Timeout: time.Duration(cfg.Timeout)}, nil
}

// MustWithOpts creates an HTTP client from the configuration and options and panics if any error occurs.
func MustWithOpts(cfg *Config, opts Opts) *http.Client {
	client, err := NewWithOpts(cfg, opts)
	if err != nil {
		panic(err)
	}
	return client
}
