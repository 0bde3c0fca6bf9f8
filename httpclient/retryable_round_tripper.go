/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dexkit/go-dexscreener/log"
	"github.com/dexkit/go-dexscreener/retry"
)

// Default parameter values for RetryableRoundTripper.
const (
	DefaultMaxRetryAttempts                  = 3
	DefaultExponentialBackoffInitialInterval = time.Second
	DefaultExponentialBackoffMultiplier      = 2

	// DefaultMaxRetryAfter matches the quota window of the API tiers.
	DefaultMaxRetryAfter = time.Minute
)

// UnlimitedRetryAttempts should be used as RetryableRoundTripperOpts.MaxRetryAttempts value
// when retries are stopped only by the backoff policy.
const UnlimitedRetryAttempts = -1

// RetryAttemptNumberHeader is an HTTP header name that contains the serial number of the retry attempt.
const RetryAttemptNumberHeader = "X-Retry-Attempt"

// CheckRetryFunc is called after every attempt and determines if the next one is needed.
type CheckRetryFunc func(ctx context.Context, resp *http.Response, roundTripErr error, doneRetryAttempts int) (bool, error)

// RetryableRoundTripper retries throttled (429) and failed (5xx, temporary network errors) requests.
// When it wraps GateRoundTripper, every attempt is admitted by the gate and counts toward the quota.
type RetryableRoundTripper struct {
	Delegate         http.RoundTripper
	LoggerProvider   func(ctx context.Context) log.FieldLogger
	MaxRetryAttempts int
	CheckRetry       CheckRetryFunc
	IgnoreRetryAfter bool

	// MaxRetryAfter is the longest Retry-After delay the round tripper agrees to wait.
	// A longer delay stops retrying, and the throttled response is returned to the caller.
	MaxRetryAfter time.Duration

	BackoffPolicy retry.Policy
}

// RetryableRoundTripperOpts represents an options for RetryableRoundTripper.
type RetryableRoundTripperOpts struct {
	// Logger is used when the request context doesn't carry a logger.
	Logger log.FieldLogger

	// MaxRetryAttempts is DefaultMaxRetryAttempts by default.
	// UnlimitedRetryAttempts leaves stopping to BackoffPolicy.
	MaxRetryAttempts int

	// CheckRetryFunc is DefaultCheckRetry by default.
	CheckRetryFunc CheckRetryFunc

	IgnoreRetryAfter bool

	// MaxRetryAfter is DefaultMaxRetryAfter by default.
	MaxRetryAfter time.Duration

	// BackoffPolicy computes delays when the response has no usable Retry-After header.
	// DefaultBackoffPolicy is used by default.
	BackoffPolicy retry.Policy
}

// NewRetryableRoundTripper returns a new instance of RetryableRoundTripper.
func NewRetryableRoundTripper(delegate http.RoundTripper) (*RetryableRoundTripper, error) {
	return NewRetryableRoundTripperWithOpts(delegate, RetryableRoundTripperOpts{})
}

// NewRetryableRoundTripperWithOpts creates a new instance of RetryableRoundTripper with specified options.
func NewRetryableRoundTripperWithOpts(
	delegate http.RoundTripper, opts RetryableRoundTripperOpts,
) (*RetryableRoundTripper, error) {
	if opts.MaxRetryAttempts < 0 && opts.MaxRetryAttempts != UnlimitedRetryAttempts {
		return nil, fmt.Errorf("incorrect max retry attempts")
	}
	if opts.MaxRetryAttempts == 0 {
		opts.MaxRetryAttempts = DefaultMaxRetryAttempts
	}
	if opts.CheckRetryFunc == nil {
		opts.CheckRetryFunc = DefaultCheckRetry
	}
	if opts.MaxRetryAfter <= 0 {
		opts.MaxRetryAfter = DefaultMaxRetryAfter
	}
	if opts.BackoffPolicy == nil {
		opts.BackoffPolicy = DefaultBackoffPolicy
	}
	return &RetryableRoundTripper{
		Delegate:         delegate,
		LoggerProvider:   loggerProvider(opts.Logger),
		MaxRetryAttempts: opts.MaxRetryAttempts,
		CheckRetry:       opts.CheckRetryFunc,
		IgnoreRetryAfter: opts.IgnoreRetryAfter,
		MaxRetryAfter:    opts.MaxRetryAfter,
		BackoffPolicy:    opts.BackoffPolicy,
	}, nil
}

// RoundTrip performs the request and retries it while CheckRetry asks for it.
// The last response or error is returned when retrying stops.
func (rt *RetryableRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := rt.LoggerProvider(ctx).With(log.String("tier", GetTierFromContext(ctx)))

	if req.Body != nil && req.Body != http.NoBody {
		origBody := req.Body
		defer func() { _ = origBody.Close() }()
	}
	rewind, err := rewindableBody(req)
	if err != nil {
		return nil, &RetryableRoundTripperError{Inner: err}
	}

	bf := rt.BackoffPolicy.NewBackOff()
	origReq := req
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			// The original request must not be modified.
			req = origReq.Clone(ctx)
			if err = rewind(req); err != nil {
				return nil, &RetryableRoundTripperError{Inner: err}
			}
			req.Header.Set(RetryAttemptNumberHeader, strconv.Itoa(attempt))
		}

		resp, roundTripErr := rt.Delegate.RoundTrip(req)

		wait, retryErr := rt.nextWait(ctx, bf, resp, roundTripErr, attempt)
		if retryErr != nil {
			logger.Debug("request is not retried", log.String("url", req.URL.String()),
				log.Int("requests", attempt+1), log.String("reason", retryErr.Error()))
			return resp, roundTripErr
		}
		if wait < 0 {
			return resp, roundTripErr
		}

		logger.Debug("retrying request",
			log.String("url", req.URL.String()),
			log.Int("attempt", attempt+1),
			log.Duration("wait", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warnf("context is done (%v) while waiting for the next retry attempt, %d request(s) done",
				ctx.Err(), attempt+1)
			return resp, roundTripErr
		case <-timer.C:
		}
		if resp != nil {
			discardResponse(resp, logger)
		}
	}
}

var (
	errMaxRetryAttemptsExceeded = errors.New("max retry attempts exceeded")
	errBackoffStopped           = errors.New("backoff policy stopped retries")
)

// nextWait returns how long to wait before the next attempt or -1 if the result should be returned as is.
// A non-nil error explains why retrying stopped.
func (rt *RetryableRoundTripper) nextWait(
	ctx context.Context, bf backoff.BackOff, resp *http.Response, roundTripErr error, attempt int,
) (time.Duration, error) {
	needRetry, err := rt.CheckRetry(ctx, resp, roundTripErr, attempt)
	if err != nil {
		return -1, fmt.Errorf("check retry: %w", err)
	}
	if !needRetry {
		return -1, nil
	}
	if rt.MaxRetryAttempts > 0 && attempt >= rt.MaxRetryAttempts {
		return -1, errMaxRetryAttemptsExceeded
	}
	if resp != nil && !rt.IgnoreRetryAfter {
		if retryAfter, ok := parseRetryAfterFromResponse(resp); ok {
			if retryAfter > rt.MaxRetryAfter {
				return -1, fmt.Errorf("retry after %s is longer than %s", retryAfter, rt.MaxRetryAfter)
			}
			return retryAfter, nil
		}
	}
	wait := bf.NextBackOff()
	if wait == backoff.Stop {
		return -1, errBackoffStopped
	}
	return wait, nil
}

// RetryableRoundTripperError is returned by RetryableRoundTripper when the request cannot be replayed.
type RetryableRoundTripperError struct {
	Inner error
}

func (e *RetryableRoundTripperError) Error() string {
	return fmt.Sprintf("retryable round trip: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RetryableRoundTripperError) Unwrap() error {
	return e.Inner
}

// DefaultCheckRetry retries temporary network errors, 429 Too Many Requests and 5xx responses.
func DefaultCheckRetry(
	_ context.Context, resp *http.Response, roundTripErr error, _ int,
) (needRetry bool, err error) {
	if roundTripErr != nil {
		return CheckErrorIsTemporary(roundTripErr), nil
	}
	if resp == nil {
		return false, fmt.Errorf("both response and round trip error are nil")
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError, nil
}

// DefaultBackoffPolicy is a default backoff policy.
var DefaultBackoffPolicy retry.Policy = retry.NewExponentialBackoffPolicy(
	DefaultExponentialBackoffInitialInterval, DefaultExponentialBackoffMultiplier, 0)

// CheckErrorIsTemporary reports whether the round trip error is worth another attempt.
func CheckErrorIsTemporary(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var terr interface{ Temporary() bool }
	return errors.As(err, &terr) && terr.Temporary()
}

// parseRetryAfterFromResponse supports both delay-seconds and HTTP-date forms of Retry-After.
func parseRetryAfterFromResponse(resp *http.Response) (time.Duration, bool) {
	val := resp.Header.Get("Retry-After")
	if val == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	at, err := http.ParseTime(val)
	if err != nil {
		return 0, false
	}
	if d := time.Until(at); d > 0 {
		return d, true
	}
	return 0, true
}
