package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys and headers for the project scope
const (
	CorporationIDKey       = "corporation_id"
	ProjectIDKey           = "project_id"
	CorporationIDHeaderKey = "X-Corporation-ID"
	ProjectIDHeaderKey     = "X-Project-ID"
)

// ScopeMiddlewareConfig holds configuration for scope middleware
type ScopeMiddlewareConfig struct {
	// SkipPaths are paths that don't require a project scope (e.g., health check)
	SkipPaths []string
	// Required determines if the scope is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultScopeConfig returns default scope middleware configuration
func DefaultScopeConfig() ScopeMiddlewareConfig {
	return ScopeMiddlewareConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:  true,
	}
}

// ScopeMiddleware extracts the corporation/project scope from request headers
func ScopeMiddleware() gin.HandlerFunc {
	return ScopeMiddlewareWithConfig(DefaultScopeConfig())
}

// ScopeMiddlewareWithConfig returns scope middleware with custom configuration.
// Every scoped request must carry both X-Corporation-ID and X-Project-ID;
// carrying only one of the two is always rejected.
func ScopeMiddlewareWithConfig(cfg ScopeMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		corporationID := c.GetHeader(CorporationIDHeaderKey)
		projectID := c.GetHeader(ProjectIDHeaderKey)

		if corporationID == "" && projectID == "" {
			if cfg.Required {
				respondScopeUnauthorized(c, "Project scope identification required")
				return
			}
			c.Next()
			return
		}

		corpUUID, err := uuid.Parse(corporationID)
		if err != nil {
			respondScopeUnauthorized(c, "Invalid corporation ID format")
			return
		}
		projUUID, err := uuid.Parse(projectID)
		if err != nil {
			respondScopeUnauthorized(c, "Invalid project ID format")
			return
		}

		c.Set(CorporationIDKey, corpUUID.String())
		c.Set(ProjectIDKey, projUUID.String())

		if cfg.Logger != nil {
			cfg.Logger.Debug("Project scope identified",
				zap.String("corporation_id", corpUUID.String()),
				zap.String("project_id", projUUID.String()),
			)
		}

		c.Next()
	}
}

// respondScopeUnauthorized sends an unauthorized response
func respondScopeUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetScope retrieves the project scope from gin.Context. The second return
// value is false when no scope was extracted for this request.
func GetScope(c *gin.Context) (shared.ProjectScope, bool) {
	corporationID, corpOK := c.Get(CorporationIDKey)
	projectID, projOK := c.Get(ProjectIDKey)
	if !corpOK || !projOK {
		return shared.ProjectScope{}, false
	}
	corpStr, ok := corporationID.(string)
	if !ok {
		return shared.ProjectScope{}, false
	}
	projStr, ok := projectID.(string)
	if !ok {
		return shared.ProjectScope{}, false
	}
	corpUUID, err := uuid.Parse(corpStr)
	if err != nil {
		return shared.ProjectScope{}, false
	}
	projUUID, err := uuid.Parse(projStr)
	if err != nil {
		return shared.ProjectScope{}, false
	}
	return shared.NewProjectScope(corpUUID, projUUID), true
}

// OptionalScopeMiddleware creates middleware that doesn't require a scope
func OptionalScopeMiddleware() gin.HandlerFunc {
	cfg := DefaultScopeConfig()
	cfg.Required = false
	return ScopeMiddlewareWithConfig(cfg)
}
