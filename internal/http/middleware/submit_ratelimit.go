package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SubmitRateLimit limits image submissions per user (not per IP) using Redis.
// Requires JWT middleware to run before this.
func SubmitRateLimit(maxSubmits int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			// Redis not configured, fail-open
			c.Next()
			return
		}

		userID := c.GetString(ContextUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		key := "submit_rl:" + userID + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		ctx := c.Request.Context()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-SubmitRateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		c.Header("X-SubmitRateLimit-Limit", strconv.Itoa(maxSubmits))
		c.Header("X-SubmitRateLimit-Remaining", strconv.FormatInt(max(0, int64(maxSubmits)-val), 10))

		if val > int64(maxSubmits) {
			RLBlocked.WithLabelValues("submit:" + c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "submission rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("submit:" + c.FullPath()).Inc()
		c.Next()
	}
}
