/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers for tests: assertions for error chains, asynchronous results and metrics.
package testutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/require"
)

type tHelper interface {
	Helper()
}

func markHelper(t interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}

// RequireErrorIsAny fails the test unless errors.Is(err, target) holds for at least one of targets.
// It's handy when the outcome legitimately depends on timing, e.g. context.Canceled vs context.DeadlineExceeded.
func RequireErrorIsAny(t require.TestingT, err error, targets []error, msgAndArgs ...interface{}) {
	markHelper(t)
	for _, target := range targets {
		if errors.Is(err, target) {
			return
		}
	}
	quoted := make([]string, 0, len(targets))
	for _, target := range targets {
		quoted = append(quoted, fmt.Sprintf("%q", target))
	}
	require.FailNow(t, fmt.Sprintf("None of the target errors is in the chain:\n"+
		"expected any of: [%s]\n"+
		"chain:\n%s", strings.Join(quoted, ", "), describeChain(err, 1)), msgAndArgs...)
}

// ReceiveWithin waits for a value from the channel and fails the test if nothing is received within timeout.
func ReceiveWithin[T any](t require.TestingT, c <-chan T, timeout time.Duration, msgAndArgs ...interface{}) T {
	markHelper(t)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v := <-c:
		return v
	case <-timer.C:
		require.FailNow(t, fmt.Sprintf("Nothing was received from the channel within %s", timeout), msgAndArgs...)
		var zero T
		return zero
	}
}

// RequireNoErrorWithin asserts that a nil error is received from the channel within timeout.
func RequireNoErrorWithin(t require.TestingT, c <-chan error, timeout time.Duration, msgAndArgs ...interface{}) {
	markHelper(t)
	require.NoError(t, ReceiveWithin(t, c, timeout, msgAndArgs...), msgAndArgs...)
}

// describeChain prints err and everything it wraps, one error per line, indented by depth.
// Errors joined with errors.Join or several %w verbs are all listed.
func describeChain(err error, depth int) string {
	if err == nil {
		return strings.Repeat("\t", depth) + "<nil>"
	}
	lines := []string{fmt.Sprintf("%s%q", strings.Repeat("\t", depth), err.Error())}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			lines = append(lines, describeChain(inner, depth+1))
		}
	case interface{ Unwrap() error }:
		if inner := x.Unwrap(); inner != nil {
			lines = append(lines, describeChain(inner, depth+1))
		}
	}
	return strings.Join(lines, "\n")
}
