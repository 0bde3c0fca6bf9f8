/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"

	"github.com/dexkit/go-dexscreener/log/logtest"
)

func TestDoRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte(`{"schemaVersion":"1.0.0"}`))
	}))
	defer server.Close()

	logger := logtest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, server.URL+"/latest/dex/search?q=WBTC", http.NoBody)
	assert.NoError(t, err)
	resp, err := DoRequest(server.Client(), req, logger)
	assert.NoError(t, err)
	buf, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.NoError(t, resp.Body.Close())
	assert.Equal(t, `{"schemaVersion":"1.0.0"}`, string(buf))

	entry, found := logger.FindEntry("got response")
	assert.True(t, found)
	assert.Equal(t, server.URL+"/latest/dex/search?q=WBTC", entry.FieldString(logKeyURI))
}

func TestDoRequest_TransportError(t *testing.T) {
	errTransport := errors.New("dial tcp: connection refused")
	client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errTransport
	})}
	logger := logtest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "http://dexscreener.test/latest", http.NoBody)
	assert.NoError(t, err)

	_, err = DoRequest(client, req, logger)
	var clientErr *ClientError
	assert.ErrorAs(t, err, &clientErr)
	assert.ErrorIs(t, err, errTransport)
	assert.Equal(t, 0, clientErr.StatusCode)
	assert.Len(t, logger.FindAllEntries("failed to do http request"), 1)
}

type roundTripperFunc func(r *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestDoRequestAndUnmarshalJSON(t *testing.T) {
	type pairResponse struct {
		SchemaVersion string `json:"schemaVersion"`
		Pair          *struct {
			ChainID string `json:"chainId"`
		} `json:"pair"`
	}

	newServer := func(contentType string, statusCode int, body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.Header().Set("Content-Type", contentType)
			rw.WriteHeader(statusCode)
			_, _ = rw.Write([]byte(body))
		}))
	}

	doRequest := func(t *testing.T, server *httptest.Server, result interface{}) error {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, server.URL+"/latest/dex/pairs/bsc/0x7213", http.NoBody)
		assert.NoError(t, err)
		return DoRequestAndUnmarshalJSON(server.Client(), req, result, logtest.NewRecorder())
	}

	t.Run("success", func(t *testing.T) {
		server := newServer(ContentTypeAppJSON, http.StatusOK, `{"schemaVersion":"1.0.0","pair":{"chainId":"bsc"}}`)
		defer server.Close()

		var resp pairResponse
		assert.NoError(t, doRequest(t, server, &resp))
		assert.Equal(t, "1.0.0", resp.SchemaVersion)
		assert.Equal(t, "bsc", resp.Pair.ChainID)
	})

	t.Run("success without result", func(t *testing.T) {
		server := newServer(ContentTypeAppJSON, http.StatusNoContent, ``)
		defer server.Close()
		assert.NoError(t, doRequest(t, server, nil))
	})

	t.Run("malformed response", func(t *testing.T) {
		server := newServer(ContentTypeAppJSON, http.StatusOK, `|`)
		defer server.Close()

		var resp pairResponse
		err := doRequest(t, server, &resp)
		var clientErr *ClientError
		assert.ErrorAs(t, err, &clientErr)
		assert.Equal(t, http.StatusOK, clientErr.StatusCode)
		assert.Equal(t, "unmarshaling response", clientErr.Message)
		assert.ErrorContains(t, clientErr.Err, "invalid character")
	})

	t.Run("empty response", func(t *testing.T) {
		server := newServer(ContentTypeAppJSON, http.StatusOK, ``)
		defer server.Close()

		var resp pairResponse
		err := doRequest(t, server, &resp)
		var clientErr *ClientError
		assert.ErrorAs(t, err, &clientErr)
		assert.Equal(t, "empty response", clientErr.Message)
	})

	t.Run("JSON error response", func(t *testing.T) {
		server := newServer(ContentTypeAppJSON+"; charset=utf-8", http.StatusBadRequest, `{"message":"Invalid chain"}`)
		defer server.Close()

		err := doRequest(t, server, &pairResponse{})
		var clientErr *ClientError
		assert.ErrorAs(t, err, &clientErr)
		assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
		var apiErr *Error
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "badRequest", apiErr.Code)
		assert.Equal(t, "Invalid chain", apiErr.Message)
	})

	t.Run("text error response", func(t *testing.T) {
		server := newServer("text/html", http.StatusTooManyRequests, `<html>rate limited</html>`)
		defer server.Close()

		err := doRequest(t, server, &pairResponse{})
		var apiErr *Error
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "tooManyRequests", apiErr.Code)
		assert.Equal(t, "Too Many Requests received with unexpected Content-Type", apiErr.Message)
		assert.Equal(t, "<html>rate limited</html>", apiErr.Body)
		assert.Equal(t, "text/html", apiErr.ContentType)
	})

	t.Run("malformed JSON error response", func(t *testing.T) {
		server := newServer(ContentTypeAppJSON, http.StatusForbidden, `|`)
		defer server.Close()

		err := doRequest(t, server, &pairResponse{})
		var clientErr *ClientError
		assert.ErrorAs(t, err, &clientErr)
		assert.Equal(t, http.StatusForbidden, clientErr.StatusCode)
		assert.ErrorContains(t, clientErr.Err, "invalid character")
	})

	t.Run("unexpected status code", func(t *testing.T) {
		server := newServer(ContentTypeAppJSON, http.StatusMultipleChoices, `{}`)
		defer server.Close()

		err := doRequest(t, server, &pairResponse{})
		var clientErr *ClientError
		assert.ErrorAs(t, err, &clientErr)
		assert.Equal(t, "unexpected status code", clientErr.Message)
		assert.Equal(t, "GET "+server.URL+"/latest/dex/pairs/bsc/0x7213: 300 Multiple Choices: unexpected status code", clientErr.Error())
	})
}

func TestResponseReader_ReadBody(t *testing.T) {
	tests := []struct {
		name        string
		body        io.Reader
		want        []byte
		wantMessage string
		wantLogMsg  string
	}{
		{
			name:        "error in reader",
			body:        iotest.ErrReader(errors.New("connection reset")),
			wantMessage: "reading response body",
			wantLogMsg:  "error reading response body",
		},
		{
			name:        "no content",
			body:        bytes.NewReader(nil),
			wantMessage: "empty response",
			wantLogMsg:  "empty response",
		},
		{
			name: "with content",
			body: bytes.NewReader([]byte(`{"pairs":[]}`)),
			want: []byte(`{"pairs":[]}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logtest.NewRecorder()
			clientErr := &ClientError{Method: http.MethodGet, StatusCode: http.StatusOK}
			r := responseReader{resp: &http.Response{Body: io.NopCloser(tt.body)}, logger: logger, err: clientErr}

			got, err := r.readBody()
			if tt.wantMessage == "" {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
				assert.Empty(t, logger.Entries())
				return
			}
			assert.Nil(t, got)
			var gotErr *ClientError
			assert.ErrorAs(t, err, &gotErr)
			assert.Same(t, clientErr, gotErr)
			assert.Equal(t, tt.wantMessage, gotErr.Message)
			_, found := logger.FindEntry(tt.wantLogMsg)
			assert.True(t, found)
		})
	}
}
