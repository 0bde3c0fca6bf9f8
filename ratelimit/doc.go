/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides a request gate that keeps outbound calls within
// a provider's requests-per-period quota.
//
// A Gate admits at most MaxCalls calls within a rolling Period. Callers either block
// in Acquire (or Do), or receive their admission asynchronously from AcquireAsync
// (or DoAsync) and may select on it together with their own timers.
// Both kinds of callers share one admission queue, so they jointly respect the quota.
//
// Every admitted call must be released. Release records the completion timestamp
// that later admission decisions are based on, so failed calls count as well.
// Do and DoAsync release automatically on every exit path.
//
// Admitted calls that are not released yet count toward the quota as well,
// so slow in-flight calls also delay the admission of the next ones.
//
// The gate never times out and cannot be canceled: a caller that needs a deadline
// should race AcquireAsync against a timer. An Admission received from AcquireAsync
// must still be released even if the caller is no longer interested in it.
//
// Key features:
//   - Rolling window admission based on the span of recorded call timestamps
//   - Blocking and channel-based entry points over a single admission queue
//   - Independent gates per rate tier (see Tiers)
//   - Optional Prometheus metrics and debug logging of throttled admissions
package ratelimit
