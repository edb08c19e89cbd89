package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type errorRoute struct {
	BaseHandler
	err error
}

func (e *errorRoute) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/fail", func(c *gin.Context) { e.HandleError(c, e.err) })
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", shared.NewDomainError(shared.CodeForbidden, "Only administrators can approve returns"), http.StatusForbidden, "FORBIDDEN"},
		{"invalid transition", shared.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"insufficient stock", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"invalid configuration", shared.ErrInvalidConfiguration, http.StatusUnprocessableEntity, "INVALID_CONFIGURATION"},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"lock conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"wrapped", fmt.Errorf("reserve line 2: %w", shared.ErrInsufficientStock), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestRouter(&errorRoute{err: tt.err})
			w, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/fail"})
			assertError(t, w, resp, tt.status, tt.code)
		})
	}

	t.Run("internal errors are not leaked", func(t *testing.T) {
		engine := newTestRouter(&errorRoute{err: errors.New("pq: password authentication failed")})
		_, resp := do(t, engine, call{method: http.MethodGet, path: "/api/v1/fail"})
		assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	})
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query          string
		page, pageSize int
	}{
		{"", 1, 20},
		{"?page=3&page_size=50", 3, 50},
		{"?page=0&page_size=500", 1, 20},
		{"?page=x", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			page, pageSize := pagination(c)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.pageSize, pageSize)
		})
	}
}
