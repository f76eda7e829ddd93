package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var bodyTooLargePayload = gin.H{
	"success": false,
	"error": gin.H{
		"code":    "REQUEST_TOO_LARGE",
		"message": "Request body exceeds maximum allowed size",
	},
}

// BodyLimit rejects oversized request bodies. A declared Content-Length
// past the limit is rejected up front; chunked bodies are capped by a
// MaxBytesReader so the binding layer fails instead of buffering
// unbounded input.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, bodyTooLargePayload)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
