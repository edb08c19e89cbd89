package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request describes one JSON call against an http.Handler.
type Request struct {
	Method   string
	Path     string
	Body     any
	Employee *uuid.UUID
	Headers  map[string]string
}

// Envelope mirrors the API response envelope with the payload left raw.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Details   []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta"`
}

// Do serves req and decodes the response envelope. Bodies that are not JSON
// leave the envelope zero.
func Do(t *testing.T, h http.Handler, req Request) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		body = ToJSONReader(t, req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := httptest.NewRequest(method, req.Path, body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.Employee != nil {
		r.Header.Set("X-Employee-ID", req.Employee.String())
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var env Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

// DecodeData unmarshals the envelope payload into T.
func DecodeData[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "Failed to decode response data")
	return out
}

// AssertSuccess asserts status and a successful envelope.
func AssertSuccess(t *testing.T, w *httptest.ResponseRecorder, env Envelope, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
}

// AssertError asserts status and the error code of a failed envelope.
func AssertError(t *testing.T, w *httptest.ResponseRecorder, env Envelope, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, code, env.Error.Code)
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
