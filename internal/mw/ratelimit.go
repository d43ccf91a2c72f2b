// Package mw holds the gin middleware used by the API group.
package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per client IP. Scan endpoints
// are hit by humans pointing phones at a screen, so the limits are generous
// and exist to blunt scripted token guessing.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newClientLimiters(limit rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

func (l *clientLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[ip] = bucket
	}
	return bucket
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(limit rate.Limit, burst int) gin.HandlerFunc {
	limiters := newClientLimiters(limit, burst)
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
