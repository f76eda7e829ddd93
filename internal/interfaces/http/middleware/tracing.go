// Package middleware provides HTTP middleware for the procurement system.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps request IDs taken from headers so an oversized
// header cannot bloat span attributes.
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "erp-procurement",
		Enabled:     true,
	}
}

// Tracing traces requests with the default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin and enriches each server span with the
// request id and the corporation/project scope, so traces can be filtered
// per tenant.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return noopMiddleware
	}

	base := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := spanRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if corporationID := spanScopeID(c, CorporationIDKey, CorporationIDHeaderKey); corporationID != "" {
		span.SetAttributes(attribute.String("corporation_id", corporationID))
	}
	if projectID := spanScopeID(c, ProjectIDKey, ProjectIDHeaderKey); projectID != "" {
		span.SetAttributes(attribute.String("project_id", projectID))
	}
}

func spanRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok && id != "" {
			return id
		}
	}
	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// spanScopeID prefers the value the scope middleware verified. A raw
// header is only accepted when it parses as a UUID, which keeps arbitrary
// client strings out of trace attributes.
func spanScopeID(c *gin.Context, contextKey, headerKey string) string {
	if scoped, exists := c.Get(contextKey); exists {
		if id, ok := scoped.(string); ok && id != "" {
			return id
		}
	}

	headerID := c.GetHeader(headerKey)
	if headerID == "" {
		return ""
	}
	if _, err := uuid.Parse(headerID); err != nil {
		return ""
	}
	return headerID
}

// SpanErrorMarker flags the active span as errored for 4xx/5xx responses.
// Place it after the tracing middleware.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}

		message := http.StatusText(statusCode)
		if message == "" {
			message = "Client Error"
		}
		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}

// TracingAttributeInjector re-applies span enrichment for chains where the
// scope middleware runs after tracing, so scope attributes still land on
// the span.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()
	}
}
