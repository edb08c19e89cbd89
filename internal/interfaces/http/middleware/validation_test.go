package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boxstock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type restockBody struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Boxes     int    `json:"boxes" binding:"required,positive_boxes"`
	Note      string `json:"note" binding:"max=5"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	r := gin.New()
	r.Use(RequestID())
	r.POST("/restock", func(c *gin.Context) {
		var req restockBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func postJSON(r *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/restock", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-v")
	w := serve(r, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestValidation(t *testing.T) {
	r := validationRouter()

	t.Run("valid body", func(t *testing.T) {
		w, _ := postJSON(r, `{"product_id":"1b4e28ba-2fa1-11d2-883f-0016d3cca427","boxes":3}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative boxes", func(t *testing.T) {
		w, resp := postJSON(r, `{"product_id":"1b4e28ba-2fa1-11d2-883f-0016d3cca427","boxes":-2}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-v", resp.Error.RequestID)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, dto.ValidationDetail{
			Field:   "boxes",
			Message: "Must be a positive whole number of boxes",
			Code:    "positive_boxes",
		}, resp.Error.Details[0])
	})

	t.Run("several fields use json names", func(t *testing.T) {
		_, resp := postJSON(r, `{"product_id":"nope","boxes":1,"note":"too long"}`)
		require.NotNil(t, resp.Error)
		fields := []string{}
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"product_id", "note"}, fields)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := postJSON(r, `{"boxes":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Empty(t, resp.Error.Details)
		assert.True(t, strings.HasPrefix(resp.Error.Message, "Malformed request"))
	})
}

func TestPositiveBoxes_Kinds(t *testing.T) {
	SetupValidator()
	type counts struct {
		Unsigned uint    `binding:"positive_boxes"`
		Float    float64 `binding:"positive_boxes"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req counts
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Unsigned":2,"Float":2}`))
	w := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, "fractional types are never box counts")
	assert.Contains(t, w.Body.String(), `"field":"Float"`)
	assert.NotContains(t, w.Body.String(), `"field":"Unsigned"`)
}
