package webserver

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter throttles ledger-dispatching routes with a fixed-window counter
// per caller address.
type RateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	epoch  time.Time
	rate   int
	window time.Duration
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counts: make(map[string]int),
		epoch:  time.Now(),
		rate:   rate,
		window: window,
	}
}

// allow counts one request for key, rolling the window when it has elapsed.
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.epoch) >= rl.window {
		rl.counts = make(map[string]int)
		rl.epoch = now
	}
	if rl.counts[key] >= rl.rate {
		return false
	}
	rl.counts[key]++
	return true
}

func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("addr")
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"err": fmt.Sprintf("rate limit exceeded: %d requests per %v", limiter.rate, limiter.window),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
