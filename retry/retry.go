/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry provides backoff policies used between retry attempts of outgoing requests.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy creates backoff sequences. Every call of NewBackOff starts a new independent sequence,
// so one policy may be shared by all requests of a client.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// PolicyFunc adapts an ordinary function to Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ExponentialBackoffPolicy produces delays growing by Multiplier from InitialInterval, randomized by backoff's default jitter.
// Zero MaxInterval keeps backoff's default cap, zero MaxAttempts means no limit.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy.
func NewExponentialBackoffPolicy(initialInterval time.Duration, multiplier float64, maxAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{InitialInterval: initialInterval, Multiplier: multiplier, MaxAttempts: maxAttempts}
}

// NewBackOff implements Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if p.Multiplier > 0 {
		eb.Multiplier = p.Multiplier
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0 // the number of attempts and Retry-After cap bound the retries instead
	return limited(eb, p.MaxAttempts)
}

// ConstantBackoffPolicy produces the same Interval between attempts. Zero MaxAttempts means no limit.
type ConstantBackoffPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy.
func NewConstantBackoffPolicy(interval time.Duration, maxAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{Interval: interval, MaxAttempts: maxAttempts}
}

// NewBackOff implements Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return limited(backoff.NewConstantBackOff(p.Interval), p.MaxAttempts)
}

func limited(bf backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		bf = backoff.WithMaxRetries(bf, uint64(maxAttempts))
	}
	bf.Reset()
	return bf
}
