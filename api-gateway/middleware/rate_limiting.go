package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"hrms-backend/shared/config"
)

// RateLimit - Rate limit info for one client
type RateLimit struct {
	Count      int
	ResetAt    time.Time
	LastAccess time.Time
	Blocked    bool
	BlockUntil time.Time
}

// RateLimiter - Fixed-window limiter keyed by client IP. A client that exceeds
// the window is blocked for BlockDuration.
type RateLimiter struct {
	store map[string]*RateLimit
	mutex sync.Mutex
	now   func() time.Time
}

// RateLimitConfig - Rate limiter configuration
type RateLimitConfig struct {
	MaxRequests   int
	TimeWindow    time.Duration
	BlockDuration time.Duration
}

// NewRateLimitConfig - Builds the limiter settings from configuration
func NewRateLimitConfig(cfg *config.Config) RateLimitConfig {
	return RateLimitConfig{
		MaxRequests:   cfg.GetRateLimitMaxRequests(),
		TimeWindow:    time.Duration(cfg.GetRateLimitTimeWindowSeconds()) * time.Second,
		BlockDuration: time.Duration(cfg.GetRateLimitBlockDurationMinutes()) * time.Minute,
	}
}

// NewRateLimiter - Creates a limiter whose stale entries are swept every cleanupEvery until ctx ends
func NewRateLimiter(ctx context.Context, cleanupEvery time.Duration) *RateLimiter {
	limiter := &RateLimiter{
		store: make(map[string]*RateLimit),
		now:   time.Now,
	}

	go limiter.cleanup(ctx, cleanupEvery)

	return limiter
}

func (rl *RateLimiter) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep(24 * time.Hour)
		}
	}
}

// sweep drops entries idle for longer than maxIdle
func (rl *RateLimiter) sweep(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, limit := range rl.store {
		if now.Sub(limit.LastAccess) > maxIdle && !(limit.Blocked && now.Before(limit.BlockUntil)) {
			delete(rl.store, key)
		}
	}
}

// allow records one request for key. When denied it also returns how long the client must wait.
func (rl *RateLimiter) allow(key string, cfg RateLimitConfig) (bool, time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	limit, exists := rl.store[key]

	if !exists {
		rl.store[key] = &RateLimit{
			Count:      1,
			ResetAt:    now.Add(cfg.TimeWindow),
			LastAccess: now,
		}
		return true, 0
	}
	limit.LastAccess = now

	if limit.Blocked {
		if now.Before(limit.BlockUntil) {
			return false, limit.BlockUntil.Sub(now)
		}
		limit.Blocked = false
		limit.Count = 0
		limit.ResetAt = now.Add(cfg.TimeWindow)
	}

	if now.After(limit.ResetAt) {
		limit.Count = 0
		limit.ResetAt = now.Add(cfg.TimeWindow)
	}

	if limit.Count >= cfg.MaxRequests {
		limit.Blocked = true
		limit.BlockUntil = now.Add(cfg.BlockDuration)
		return false, cfg.BlockDuration
	}

	limit.Count++
	return true, 0
}

// GlobalRateLimitMiddleware - Global rate limiting for all API Gateway requests
func (rl *RateLimiter) GlobalRateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "global:" + c.ClientIP()

		allowed, retryAfter := rl.allow(key, cfg)
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Too many requests from this IP. Please try again later.",
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}
