package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimiter(t *testing.T, limit int, window time.Duration) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(limit, window)
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(t, 3, time.Hour)

	for i := range 3 {
		assert.True(t, rl.Allow("client-a"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("client-a"), "budget exhausted")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newRateLimiter(t, 1, time.Hour)

	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-b"))
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := newRateLimiter(t, 2, 50*time.Millisecond)

	assert.True(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("client-a"))
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := newRateLimiter(t, 5, time.Hour)

	assert.Equal(t, 5, rl.Remaining("fresh"))

	require.True(t, rl.Allow("used"))
	assert.Equal(t, 4, rl.Remaining("used"))
}

func newRateLimitRouter(t *testing.T, limit int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(newRateLimiter(t, limit, time.Hour)))
	router.GET("/api/v1/receipt-notes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})
	return router
}

func TestRateLimit_RejectsPastBudget(t *testing.T) {
	router := newRateLimitRouter(t, 2)

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/receipt-notes", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_RejectionBody(t *testing.T) {
	router := newRateLimitRouter(t, 1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/receipt-notes", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/receipt-notes", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimit_SetsHeaders(t *testing.T) {
	router := newRateLimitRouter(t, 10)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/receipt-notes", nil))

	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_ScopesByCorporation(t *testing.T) {
	router := newRateLimitRouter(t, 1)

	send := func(corporation string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipt-notes", nil)
		if corporation != "" {
			req.Header.Set(CorporationIDHeaderKey, corporation)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// Same client IP, different corporations: separate budgets.
	assert.Equal(t, http.StatusOK, send("corp-a"))
	assert.Equal(t, http.StatusTooManyRequests, send("corp-a"))
	assert.Equal(t, http.StatusOK, send("corp-b"))
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitByKey(newRateLimiter(t, 1, time.Hour), func(c *gin.Context) string {
		return c.GetHeader("X-Api-Key")
	}))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Api-Key", key)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("key-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("key-1"))
	assert.Equal(t, http.StatusOK, send("key-2"))
}
