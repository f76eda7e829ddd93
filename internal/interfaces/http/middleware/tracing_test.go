package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	return sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (string, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func findSpan(sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

func newTracedRouter(t *testing.T, extra ...gin.HandlerFunc) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sr := setupSpanRecorder(t)
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "procurement-test"}))
	for _, h := range extra {
		router.Use(h)
	}
	return router, sr
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracingWithConfig_RecordsServerSpan(t *testing.T) {
	router, sr := newTracedRouter(t)
	router.GET("/api/v1/receipt-notes/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/receipt-notes/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	span := findSpan(sr, "GET /api/v1/receipt-notes/:id")
	require.NotNil(t, span, "expected a server span named after the route pattern")
}

func TestTracingWithConfig_RequestIDAttribute(t *testing.T) {
	router, sr := newTracedRouter(t)
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-trace-7")
	})
	router.GET("/documents", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))

	span := findSpan(sr, "GET /documents")
	require.NotNil(t, span)

	got, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-trace-7", got)
}

func TestTracingWithConfig_ScopeAttributes(t *testing.T) {
	const (
		corpID = "6a9f0f3e-8d3a-4a8c-9f64-0d5b4be2a001"
		projID = "6a9f0f3e-8d3a-4a8c-9f64-0d5b4be2a002"
	)

	router, sr := newTracedRouter(t)
	router.Use(func(c *gin.Context) {
		c.Set(CorporationIDKey, corpID)
		c.Set(ProjectIDKey, projID)
	})
	router.GET("/scoped", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scoped", nil))

	span := findSpan(sr, "GET /scoped")
	require.NotNil(t, span)

	corp, ok := spanAttr(span, "corporation_id")
	require.True(t, ok)
	assert.Equal(t, corpID, corp)

	proj, ok := spanAttr(span, "project_id")
	require.True(t, ok)
	assert.Equal(t, projID, proj)
}

func TestTracingWithConfig_ScopeHeaders(t *testing.T) {
	t.Run("valid UUID header accepted", func(t *testing.T) {
		router, sr := newTracedRouter(t)
		router.GET("/unscoped", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/unscoped", nil)
		req.Header.Set(CorporationIDHeaderKey, "6a9f0f3e-8d3a-4a8c-9f64-0d5b4be2a001")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		span := findSpan(sr, "GET /unscoped")
		require.NotNil(t, span)

		corp, ok := spanAttr(span, "corporation_id")
		require.True(t, ok)
		assert.Equal(t, "6a9f0f3e-8d3a-4a8c-9f64-0d5b4be2a001", corp)
	})

	t.Run("non-UUID header dropped", func(t *testing.T) {
		router, sr := newTracedRouter(t)
		router.GET("/unscoped", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/unscoped", nil)
		req.Header.Set(CorporationIDHeaderKey, "<script>alert(1)</script>")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		span := findSpan(sr, "GET /unscoped")
		require.NotNil(t, span)

		_, ok := spanAttr(span, "corporation_id")
		assert.False(t, ok)
	})
}

func TestTracingWithConfig_TruncatesLongRequestID(t *testing.T) {
	router, sr := newTracedRouter(t)
	router.GET("/documents", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	long := make([]byte, MaxRequestIDLength*2)
	for i := range long {
		long[i] = 'a'
	}
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("X-Request-ID", string(long))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	span := findSpan(sr, "GET /documents")
	require.NotNil(t, span)

	got, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Len(t, got, MaxRequestIDLength)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{"success left unset", http.StatusOK, false},
		{"not found marked", http.StatusNotFound, true},
		{"server error marked", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sr := newTracedRouter(t, SpanErrorMarker())
			router.GET("/status", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

			span := findSpan(sr, "GET /status")
			require.NotNil(t, span)

			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status().Code)
				assert.Equal(t, http.StatusText(tt.status), span.Status().Description)
			} else {
				assert.NotEqual(t, codes.Error, span.Status().Code)
			}
		})
	}
}

func TestTracingAttributeInjector(t *testing.T) {
	// Scope is established after tracing here; the injector backfills the
	// span attributes the tracing middleware could not see.
	router, sr := newTracedRouter(t,
		func(c *gin.Context) {
			c.Set(CorporationIDKey, "6a9f0f3e-8d3a-4a8c-9f64-0d5b4be2a009")
			c.Next()
		},
		TracingAttributeInjector(),
	)
	router.GET("/late-scope", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late-scope", nil))

	span := findSpan(sr, "GET /late-scope")
	require.NotNil(t, span)

	corp, ok := spanAttr(span, "corporation_id")
	require.True(t, ok)
	assert.Equal(t, "6a9f0f3e-8d3a-4a8c-9f64-0d5b4be2a009", corp)
}
