package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter stores a rate limiter per client key.
type KeyedRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       *sync.RWMutex
	r        rate.Limit
	b        int
}

// NewKeyedRateLimiter creates a new KeyedRateLimiter.
func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		mu:       &sync.RWMutex{},
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the rate limiter for key, creating it on first use.
func (k *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	k.mu.RLock()
	limiter, exists := k.limiters[key]
	k.mu.RUnlock()
	if exists {
		return limiter
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	// Another request may have created it between the two locks.
	if limiter, exists = k.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(k.r, k.b)
	k.limiters[key] = limiter
	return limiter
}

// ClientKey identifies the caller of a request. ipHeader names a header set
// by a trusted reverse proxy; when empty or absent gin's ClientIP is used.
func ClientKey(ipHeader string) func(c *gin.Context) string {
	return func(c *gin.Context) string {
		if ipHeader != "" {
			if ip := c.GetHeader(ipHeader); ip != "" {
				return ip
			}
		}
		return c.ClientIP()
	}
}

// RateLimiter is a middleware limiting each client key to r requests per
// second with burst b.
func RateLimiter(r rate.Limit, b int, key func(c *gin.Context) string) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(key(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
