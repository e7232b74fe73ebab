package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github/chapool/token-agent/internal/api"
)

// GenericPayload is a loose JSON request body for tests.
type GenericPayload map[string]interface{}

func (g GenericPayload) Reader(t *testing.T) *bytes.Reader {
	t.Helper()

	b, err := json.Marshal(g)
	require.NoError(t, err)

	return bytes.NewReader(b)
}

// PerformRequest runs a request against the test server's router and
// returns the response recorder.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body GenericPayload, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = body.Reader(t)
	}

	req := httptest.NewRequest(method, path, bodyReader)

	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	for key, vals := range headers {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseBody unmarshals the JSON response body into v.
func ParseResponseBody(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	require.NoError(t, json.Unmarshal(res.Body.Bytes(), v))
}

// HeadersWithIdempotencyKey is a convenience for the mutating token routes.
func HeadersWithIdempotencyKey(key string) http.Header {
	headers := http.Header{}
	headers.Set("Idempotency-Key", key)

	return headers
}
