package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type supplierInput struct {
	SupplierID   string `json:"supplier_id" binding:"required,uuid"`
	SupplierName string `json:"supplier_name" binding:"required,min=1,max=200"`
	Kind         string `json:"kind" binding:"required,oneof=PURCHASE_ORDER CHANGE_ORDER"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/documents", func(c *gin.Context) {
		var req supplierInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports each failing field by its json name", func(t *testing.T) {
		w := postJSON(router, `{"supplier_id": "not-a-uuid", "kind": "RECEIPT"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)

		assert.False(t, resp.Success)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 3)

		fields := make(map[string]string, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid UUID format", fields["supplier_id"])
		assert.Equal(t, "This field is required", fields["supplier_name"])
		assert.Contains(t, fields["kind"], "Must be one of:")
	})

	t.Run("passes valid input through", func(t *testing.T) {
		w := postJSON(router, `{
			"supplier_id": "550e8400-e29b-41d4-a716-446655440000",
			"supplier_name": "Acme Industrial Supply",
			"kind": "PURCHASE_ORDER"
		}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("carries the request id when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", "req-55")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, "req-55", resp.Error.RequestID)
	})
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestValidationMessage(t *testing.T) {
	type bounds struct {
		Name     string  `binding:"min=5"`
		Code     string  `binding:"max=3"`
		Quantity float64 `binding:"gt=0"`
		Page     int     `binding:"gte=1"`
		PageSize int     `binding:"lte=100"`
	}

	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(bounds{Name: "ab", Code: "TOOLONG", Quantity: -1, Page: 0, PageSize: 500})
	require.Error(t, err)

	want := map[string]string{
		"Name":     "Must be at least 5 characters",
		"Code":     "Must be at most 3 characters",
		"Quantity": "Must be greater than 0",
		"Page":     "Must be greater than or equal to 1",
		"PageSize": "Must be less than or equal to 100",
	}

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	for _, e := range validationErrors {
		assert.Equal(t, want[e.StructField()], validationMessage(e), e.StructField())
	}
}

func TestSetupValidator_UsesGinEngine(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}
