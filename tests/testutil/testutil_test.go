package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	db := NewMockDB(t)
	assert.NotNil(t, db.DB)
	assert.NotNil(t, db.Mock)
	db.ExpectationsWereMet(t)
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.NotEqual(t, TestEmployeeID(), TestClientID())
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, time.Minute)
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}

func TestDo(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		_ = c.ShouldBindJSON(&body)
		body["employee"] = c.GetHeader("X-Employee-ID")
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": body})
	})
	engine.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": "NOT_FOUND", "message": "missing"},
		})
	})

	t.Run("success", func(t *testing.T) {
		emp := uuid.New()
		w, env := Do(t, engine, Request{Method: http.MethodPost, Path: "/echo", Body: map[string]int{"boxes": 3}, Employee: &emp})
		AssertSuccess(t, w, env, http.StatusCreated)

		data := DecodeData[map[string]any](t, env)
		assert.Equal(t, float64(3), data["boxes"])
		assert.Equal(t, emp.String(), data["employee"])
	})

	t.Run("error", func(t *testing.T) {
		w, env := Do(t, engine, Request{Path: "/fail"})
		AssertError(t, w, env, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "missing", env.Error.Message)
	})
}
