/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package restapi provides helpers for calling JSON REST APIs:
// doing a request with logging, decoding a successful response and converting failures into ClientError.
package restapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dexkit/go-dexscreener/log"
)

// ContentTypeAppJSON represents MIME media type for JSON.
const ContentTypeAppJSON = "application/json"

// maxDebugBodySize limits how much of a non-JSON error body is kept in Error.Body.
const maxDebugBodySize = 255

const (
	logKeyMethod = "method"
	logKeyURI    = "uri"
	logKeyStatus = "status"
)

// DoRequest does the HTTP request and logs its details.
func DoRequest(client *http.Client, req *http.Request, logger log.FieldLogger) (*http.Response, error) {
	reqLogger := logger.With(log.String(logKeyMethod, req.Method), log.String(logKeyURI, req.URL.String()))
	reqLogger.Debug("sent request")

	resp, err := client.Do(req)
	if err != nil {
		reqLogger.Error("failed to do http request", log.Error(err))
		return nil, &ClientError{Method: req.Method, URL: req.URL, Message: "do request", Err: err}
	}
	reqLogger.Debug("got response", log.Int(logKeyStatus, resp.StatusCode))
	return resp, nil
}

// DoRequestAndUnmarshalJSON does the HTTP request and unmarshals a 2xx JSON response into result.
// Any other outcome is returned as *ClientError.
// Error details from 4xx and 5xx responses are available as *Error via errors.As.
func DoRequestAndUnmarshalJSON(client *http.Client, req *http.Request, result interface{}, logger log.FieldLogger) error {
	resp, err := DoRequest(client, req, logger)
	if err != nil {
		return err // already logged
	}
	logger = logger.With(
		log.String(logKeyMethod, req.Method),
		log.String(logKeyURI, req.URL.String()),
		log.Int(logKeyStatus, resp.StatusCode),
	)
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", log.Error(closeErr))
		}
	}()

	r := responseReader{resp: resp, logger: logger, err: &ClientError{Method: req.Method, URL: req.URL, StatusCode: resp.StatusCode}}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if result == nil {
			return nil
		}
		return r.decodeResult(result)
	case resp.StatusCode >= 400 && resp.StatusCode < 600:
		return r.decodeAPIError()
	default:
		r.err.Message = "unexpected status code"
		return r.err
	}
}

type responseReader struct {
	resp   *http.Response
	logger log.FieldLogger
	err    *ClientError
}

func (r responseReader) decodeResult(result interface{}) error {
	body, err := r.readBody()
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, result); err != nil {
		r.logger.Error("error unmarshaling response", log.Error(err))
		return r.err.wrap("unmarshaling response", err)
	}
	return nil
}

// decodeAPIError builds an *Error from a 4xx or 5xx response.
// Bodies that are not JSON (HTML pages of a CDN, plain text of a proxy) are kept truncated for diagnostics.
func (r responseReader) decodeAPIError() error {
	body, err := r.readBody()
	if err != nil {
		return err
	}
	apiErr := &Error{Code: statusCodeName(r.resp.StatusCode)}
	contentType := r.resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, ContentTypeAppJSON) {
		apiErr.Message = fmt.Sprintf("%s received with unexpected Content-Type", http.StatusText(r.resp.StatusCode))
		apiErr.ContentType = contentType
		apiErr.Body = string(body[:min(len(body), maxDebugBodySize)])
		return r.err.wrap("error response", apiErr)
	}
	if err = json.Unmarshal(body, apiErr); err != nil {
		r.logger.Error("error unmarshaling error response", log.Error(err))
		return r.err.wrap("unmarshaling error response", err)
	}
	return r.err.wrap("error response", apiErr)
}

func (r responseReader) readBody() ([]byte, error) {
	body, err := io.ReadAll(r.resp.Body)
	if err != nil {
		r.logger.Error("error reading response body", log.Error(err))
		return nil, r.err.wrap("reading response body", err)
	}
	if len(body) == 0 {
		r.logger.Error("empty response")
		r.err.Message = "empty response"
		return nil, r.err
	}
	return body, nil
}
