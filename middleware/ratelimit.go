package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type rateLimiter struct {
	requests map[string]*clientRequest
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

type clientRequest struct {
	count     int
	resetTime time.Time
}

// RateLimiter returns a per-IP fixed-window rate limiting middleware.
// Scrape fan-outs are expensive, so the limit should stay well below what
// the marketplaces would tolerate from one origin.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		requests: make(map[string]*clientRequest),
		limit:    limit,
		window:   window,
	}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for range ticker.C {
			limiter.cleanup()
		}
	}()

	return func(c *gin.Context) {
		// Only the counter bookkeeping happens under the lock; holding it
		// across the handler chain would queue every client behind an
		// in-flight scrape fan-out.
		retryAfter, limited := limiter.take(c.ClientIP())
		if limited {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// take counts one request for ip. It reports whether the client is over
// the limit and, if so, how long until the window resets.
func (rl *rateLimiter) take(ip string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.requests[ip]
	if !exists || now.After(client.resetTime) {
		rl.requests[ip] = &clientRequest{
			count:     1,
			resetTime: now.Add(rl.window),
		}
		return 0, false
	}

	if client.count >= rl.limit {
		return client.resetTime.Sub(now), true
	}

	client.count++
	return 0, false
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, client := range rl.requests {
		if now.After(client.resetTime) {
			delete(rl.requests, ip)
		}
	}
}
