package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"compliance/internal/config"
)

func TestFromConfig(t *testing.T) {
	got := FromConfig(config.RateLimitConfig{RPS: 2, CleanupInterval: 60})
	assert.Equal(t, 2.0, got.RPS)
	assert.Equal(t, DefaultConfig().Burst, got.Burst)
	assert.Equal(t, time.Minute, got.CleanupInterval)
	assert.Equal(t, DefaultConfig().MaxAge, got.MaxAge)
}

func newLimitedRouter(settings RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(settings))
	router.GET("/api/v1/rules", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func send(router http.Handler, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	router := newLimitedRouter(RateLimitConfig{RPS: 1, Burst: 2, CleanupInterval: time.Minute, MaxAge: time.Minute})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = send(router, "")
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "1", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimitMiddleware_KeyHeader(t *testing.T) {
	router := newLimitedRouter(RateLimitConfig{RPS: 1, Burst: 1, CleanupInterval: time.Minute, MaxAge: time.Minute, KeyHeader: "X-User-ID"})

	assert.Equal(t, http.StatusOK, send(router, "alice").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(router, "alice").Code)
	assert.Equal(t, http.StatusOK, send(router, "bob").Code)
}

func TestClientLimiters_Sweep(t *testing.T) {
	l := newClientLimiters(RateLimitConfig{RPS: 1, Burst: 1, CleanupInterval: time.Minute, MaxAge: time.Minute})
	start := time.Now()

	l.get("a", start)
	l.get("b", start.Add(30*time.Second))
	assert.Equal(t, 2, l.size())

	l.get("b", start.Add(90*time.Second))
	assert.Equal(t, 1, l.size())
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 1, retryAfter(0.5, 10))
	assert.Equal(t, 5, retryAfter(0, 0.2))
	assert.Equal(t, 1, retryAfter(0, 0))
}
