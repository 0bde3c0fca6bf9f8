/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ClientError is returned when an API request fails or its response can't be used.
// StatusCode is zero when no response was received.
type ClientError struct {
	Message    string
	Method     string
	URL        *url.URL
	StatusCode int
	Err        error
}

func (e *ClientError) wrap(message string, err error) *ClientError {
	e.Message = message
	e.Err = err
	return e
}

// Error implements the error interface, e.g. "GET https://api.dexscreener.io/latest/dex/search?q=X: 429 Too Many Requests: ...".
func (e *ClientError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Method)
	if e.URL != nil {
		sb.WriteString(" ")
		sb.WriteString(e.URL.Redacted())
	}
	if e.StatusCode != 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)))
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Is allows checking the cause with errors.Is.
func (e *ClientError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Unwrap allows checking the cause with errors.As.
func (e *ClientError) Unwrap() error {
	return e.Err
}
