package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request describes a request sent through a full engine with Do.
type Request struct {
	Method  string
	Path    string
	Body    any
	Cookies []*http.Cookie
	Headers map[string]string
}

// Do serves req through handler and returns the recorder.
func Do(t *testing.T, handler http.Handler, req Request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		switch b := req.Body.(type) {
		case string:
			body = bytes.NewBufferString(b)
		case []byte:
			body = bytes.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err, "Failed to marshal request body")
			body = bytes.NewReader(raw)
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	r := httptest.NewRequest(method, req.Path, body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	for _, c := range req.Cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

// DecodeJSON parses the recorder body as a JSON object.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "Failed to parse JSON response: %s", w.Body.String())
	return result
}

// DecodeJSONAs parses the recorder body into T.
func DecodeJSONAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "Failed to parse JSON response")
	return result
}

// AssertErrorResponse asserts the body is an error envelope with the code.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()

	resp := DecodeJSON(t, w)
	assert.Equal(t, false, resp["success"], "Expected success to be false")

	errMap, ok := resp["error"].(map[string]any)
	require.True(t, ok, "Expected error object in response")
	assert.Equal(t, expectedCode, errMap["code"], "Unexpected error code")
}
