package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// labelFromRequest reads a pprof label visible inside the handler.
func labelFromRequest(c *gin.Context, key string) (string, bool) {
	return pprof.Label(c.Request.Context(), key)
}

func TestDefaultProfilingConfig(t *testing.T) {
	cfg := middleware.DefaultProfilingConfig()

	assert.True(t, cfg.Enabled)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPathPrefixes, "/swagger")
}

func TestProfilingMiddleware_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{Enabled: false}))

	handlerCalled := false
	router.GET("/documents", func(c *gin.Context) {
		handlerCalled = true
		_, hasRoute := labelFromRequest(c, "route")
		assert.False(t, hasRoute, "no labels expected when disabled")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerCalled)
}

func TestProfilingMiddleware_LabelsHandlerContext(t *testing.T) {
	router := gin.New()
	router.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))

	var gotRoute, gotMethod, gotController string
	router.GET("/api/v1/procurement/ordering-documents/:id", func(c *gin.Context) {
		gotRoute, _ = labelFromRequest(c, "route")
		gotMethod, _ = labelFromRequest(c, "method")
		gotController, _ = labelFromRequest(c, "controller")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/procurement/ordering-documents/d1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/procurement/ordering-documents/:id", gotRoute)
	assert.Equal(t, "GET", gotMethod)
	assert.Equal(t, "procurement", gotController)
}

func TestProfilingMiddleware_CorporationLabel(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.CorporationIDKey, "corp-456")
	})
	router.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))

	var gotCorp string
	var hasCorp bool
	router.GET("/api/v1/procurement/receipt-notes", func(c *gin.Context) {
		gotCorp, hasCorp = labelFromRequest(c, "corporation_id")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/procurement/receipt-notes", nil))

	require.True(t, hasCorp)
	assert.Equal(t, "corp-456", gotCorp)
}

func TestProfilingMiddleware_NonStringCorporationIgnored(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.CorporationIDKey, 12345)
	})
	router.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))

	var hasCorp bool
	router.GET("/api/v1/procurement/receipt-notes", func(c *gin.Context) {
		_, hasCorp = labelFromRequest(c, "corporation_id")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/procurement/receipt-notes", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, hasCorp)
}

func TestProfilingMiddleware_SkipsConfiguredPaths(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"exact skip path", "/health"},
		{"prefix skip path", "/swagger/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))

			var hasMethod bool
			router.GET(tt.path, func(c *gin.Context) {
				_, hasMethod = labelFromRequest(c, "method")
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.False(t, hasMethod, "skipped paths must not be labeled")
		})
	}
}

func TestProfilingAttributeInjector(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.CorporationIDKey, "corp-only")
	})
	router.Use(middleware.ProfilingAttributeInjector())

	var hasCorp bool
	router.GET("/api/v1/procurement/return-notes", func(c *gin.Context) {
		_, hasCorp = labelFromRequest(c, "corporation_id")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/procurement/return-notes", nil))

	assert.True(t, hasCorp)
}
