/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"
	"time"
)

// Rate describes the frequency of requests.
type Rate struct {
	Count    int
	Duration time.Duration
}

// String returns a human-readable representation of the rate (e.g. "300/1m0s").
func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Count, r.Duration)
}

// Validate checks that the rate may be used for constructing a Gate.
func (r Rate) Validate() error {
	if r.Count <= 0 {
		return ErrInvalidMaxCalls
	}
	if r.Duration <= 0 {
		return ErrInvalidPeriod
	}
	return nil
}
