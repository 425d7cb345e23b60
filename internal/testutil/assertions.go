package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest builds a request whose body is v encoded as JSON. A string
// or []byte body is sent verbatim.
func NewJSONRequest(t *testing.T, method, url string, v interface{}) *http.Request {
	t.Helper()

	var body io.Reader
	switch b := v.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	case []byte:
		body = bytes.NewBuffer(b)
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err, "failed to marshal request body")
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "failed to build request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the status and the {"error": ...} body.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body struct {
		Error string `json:"error"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedMessage, body.Error, "error message mismatch")
}

// AssertFieldErrors verifies a 400 {"errors": {...}} body names every field.
func AssertFieldErrors(t *testing.T, resp *http.Response, fields ...string) {
	t.Helper()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unexpected status code")

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	AssertJSONResponse(t, resp, &body)
	for _, field := range fields {
		assert.NotEmpty(t, body.Errors[field], "expected an error for field %s, got %v", field, body.Errors)
	}
}

// AssertUnauthenticated checks the uniform 401 of the authorization gate.
func AssertUnauthenticated(t *testing.T, resp *http.Response) {
	t.Helper()
	AssertErrorResponse(t, resp, http.StatusUnauthorized, "Authentication required")
}
