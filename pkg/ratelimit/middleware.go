package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"compliance/internal/config"
	apperrors "compliance/pkg/errors"
	"compliance/pkg/metrics"
)

type RateLimitConfig struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	MaxAge          time.Duration
	// KeyHeader, when set and present on a request, keys the limiter
	// instead of the client IP.
	KeyHeader string
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:             10.0,
		Burst:           20,
		CleanupInterval: 5 * time.Minute,
		MaxAge:          10 * time.Minute,
	}
}

// FromConfig builds the limiter settings from the management config. Zero
// values keep the defaults; intervals are given in seconds.
func FromConfig(cfg config.RateLimitConfig) RateLimitConfig {
	out := DefaultConfig()
	if cfg.RPS > 0 {
		out.RPS = cfg.RPS
	}
	if cfg.Burst > 0 {
		out.Burst = cfg.Burst
	}
	if cfg.CleanupInterval > 0 {
		out.CleanupInterval = time.Duration(cfg.CleanupInterval) * time.Second
	}
	if cfg.MaxAge > 0 {
		out.MaxAge = time.Duration(cfg.MaxAge) * time.Second
	}
	return out
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters keeps one token bucket per client key. Idle buckets are
// swept on the request path once per CleanupInterval.
type clientLimiters struct {
	settings  RateLimitConfig
	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
}

func newClientLimiters(settings RateLimitConfig) *clientLimiters {
	return &clientLimiters{
		settings:  settings,
		entries:   make(map[string]*entry),
		lastSweep: time.Now(),
	}
}

func (l *clientLimiters) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.settings.CleanupInterval {
		l.sweepLocked(now)
	}

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(l.settings.RPS), l.settings.Burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (l *clientLimiters) sweepLocked(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.settings.MaxAge {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RateLimitMiddleware limits each client to settings.RPS with bursts of
// settings.Burst.
func RateLimitMiddleware(settings RateLimitConfig) gin.HandlerFunc {
	return newClientLimiters(settings).handle
}

func (l *clientLimiters) handle(c *gin.Context) {
	key := ""
	if l.settings.KeyHeader != "" {
		key = c.GetHeader(l.settings.KeyHeader)
	}
	if key == "" {
		key = c.ClientIP()
	}

	now := time.Now()
	limiter := l.get(key, now)
	c.Header("X-RateLimit-Limit", strconv.FormatFloat(l.settings.RPS, 'f', -1, 64))

	if !limiter.AllowN(now, 1) {
		metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("Retry-After", strconv.Itoa(retryAfter(limiter.TokensAt(now), l.settings.RPS)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apperrors.ErrorResponse{
			Error:     "rate limit exceeded",
			ErrorCode: "RATE_LIMIT_EXCEEDED",
		})
		return
	}

	metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
	remaining := int(math.Floor(limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Next()
}

// retryAfter is the whole number of seconds until one token is available.
func retryAfter(tokens, rps float64) int {
	if rps <= 0 {
		return 1
	}
	secs := int(math.Ceil((1 - tokens) / rps))
	if secs < 1 {
		secs = 1
	}
	return secs
}
