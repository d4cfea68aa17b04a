package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// SimpleRateLimit blocks clients that send more than maxRequests per window.
// State is per process; use it only when Redis is not available.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	clients := make(map[string]*clientInfo)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		ci, ok := clients[ip]
		if !ok || now.Sub(ci.start) > window {
			ci = &clientInfo{start: now}
			clients[ip] = ci
		}
		ci.count++
		count := ci.count
		mu.Unlock()

		if count > maxRequests {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
