/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"net/http"
	"strings"
)

// Error describes a non-2xx response of the market data API.
// Code is taken from the JSON body when present and derived from the HTTP status otherwise.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	// ContentType and Body are kept only when the response is not JSON, so the caller can see what came back
	// (typically an HTML page of a CDN or a plain text proxy error).
	ContentType string `json:"-"`
	Body        string `json:"-"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// statusCodeName turns the HTTP status text into lower camel case, 429 becomes "tooManyRequests".
func statusCodeName(status int) string {
	words := strings.Fields(http.StatusText(status))
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 && w != "" {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		words[i] = w
	}
	return strings.Join(words, "")
}
