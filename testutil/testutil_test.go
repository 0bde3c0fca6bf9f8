/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import "fmt"

// recordingT is a require.TestingT that remembers failures instead of stopping the test.
type recordingT struct {
	failed   bool
	messages []string
}

func (t *recordingT) FailNow() { t.failed = true }

func (t *recordingT) Errorf(format string, args ...interface{}) {
	t.failed = true
	t.messages = append(t.messages, fmt.Sprintf(format, args...))
}
