package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/boxstock/backend/internal/interfaces/http/dto"
	"github.com/boxstock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestRouter(r registrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.EmployeeIdentity())
	r.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

type call struct {
	method   string
	path     string
	body     any
	employee string
}

// apiResponse mirrors dto.Response with Data left raw for typed decoding
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func do(t *testing.T, engine *gin.Engine, c call) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var body *bytes.Reader
	switch b := c.body.(type) {
	case nil:
		body = bytes.NewReader(nil)
	case string:
		body = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-test")
	if c.employee != "" {
		req.Header.Set(middleware.EmployeeIDHeader, c.employee)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, resp apiResponse, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	require.Equal(t, "req-test", resp.Error.RequestID)
	require.False(t, resp.Success)
}
