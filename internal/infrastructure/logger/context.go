package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for the request ID
	RequestIDKey contextKey = "request_id"
	// CorporationIDKey is the context key for the corporation ID
	CorporationIDKey contextKey = "corporation_id"
	// ProjectIDKey is the context key for the project ID
	ProjectIDKey contextKey = "project_id"
)

// WithContext attaches a logger to the context.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger attached to the context, or a no-op
// logger when none is attached.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID in the context and returns a logger
// that tags every entry with it.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithProjectScope stores the corporation and project IDs in the context
// and returns a logger that tags every entry with both.
func WithProjectScope(ctx context.Context, logger *zap.Logger, corporationID, projectID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, CorporationIDKey, corporationID)
	ctx = context.WithValue(ctx, ProjectIDKey, projectID)
	enriched := logger.With(
		zap.String("corporation_id", corporationID),
		zap.String("project_id", projectID),
	)
	return WithContext(ctx, enriched), enriched
}

// GetRequestID returns the request ID stored in the context, if any.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetCorporationID returns the corporation ID stored in the context, if any.
func GetCorporationID(ctx context.Context) string {
	if corporationID, ok := ctx.Value(CorporationIDKey).(string); ok {
		return corporationID
	}
	return ""
}

// GetProjectID returns the project ID stored in the context, if any.
func GetProjectID(ctx context.Context) string {
	if projectID, ok := ctx.Value(ProjectIDKey).(string); ok {
		return projectID
	}
	return ""
}
