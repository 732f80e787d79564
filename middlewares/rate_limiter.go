package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is the general per-IP sliding-window limiter applied to
// the whole API.
type RateLimiter struct {
	rate     int
	interval time.Duration
	ips      map[string][]time.Time
	mu       sync.Mutex
}

func NewRateLimiter(rate int, intervalSeconds int) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		interval: time.Duration(intervalSeconds) * time.Second,
		ips:      make(map[string][]time.Time),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		defer rl.mu.Unlock()

		now := time.Now()
		cutoff := now.Add(-rl.interval)
		valid := make([]time.Time, 0)
		for _, t := range rl.ips[ip] {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}

		if len(valid) >= rl.rate {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		rl.ips[ip] = append(valid, now)
		c.Next()
	}
}

var (
	strictLimiters   = make(map[string]*rate.Limiter)
	strictLimitersMu sync.Mutex
)

// NewStrictRateLimiter limits an IP to 5 attempts per minute. Meant for
// login and register endpoints where brute force is the concern.
func NewStrictRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		strictLimitersMu.Lock()
		limiter, ok := strictLimiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Every(12*time.Second), 5)
			strictLimiters[ip] = limiter
		}
		strictLimitersMu.Unlock()

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
