/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/dexkit/go-dexscreener/log"
)

// maxDrainedBodyBytes limits how much of a discarded response is read to keep the connection reusable.
// Bigger bodies are just closed.
const maxDrainedBodyBytes = 64 << 10

type rewindFunc func(r *http.Request) error

func noRewind(*http.Request) error { return nil }

// rewindableBody makes the request body replayable for the next attempts.
// GetBody is preferred, otherwise the body is buffered in memory (API requests are small).
func rewindableBody(req *http.Request) (rewindFunc, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return noRewind, nil
	}
	if req.GetBody != nil {
		return func(r *http.Request) error {
			body, err := r.GetBody()
			if err != nil {
				return fmt.Errorf("get body: %w", err)
			}
			r.Body = body
			return nil
		}, nil
	}
	buffered, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(buffered))
	return func(r *http.Request) error {
		r.Body = io.NopCloser(bytes.NewReader(buffered))
		return nil
	}, nil
}

// discardResponse drains (up to a limit) and closes the response of a failed attempt.
func discardResponse(resp *http.Response, logger log.FieldLogger) {
	if _, err := io.CopyN(io.Discard, resp.Body, maxDrainedBodyBytes); err != nil && err != io.EOF {
		logger.Warn("failed to drain response body of the failed attempt", log.Error(err))
	}
	if err := resp.Body.Close(); err != nil {
		logger.Warn("failed to close response body of the failed attempt", log.Error(err))
	}
}
