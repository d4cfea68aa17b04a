package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"scamfeed/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// UseRedis installs the client shared by the Redis-backed limiters. If the
// ping fails the limiters stay disabled and RateLimit falls back to memory.
func UseRedis(rdb *redis.Client) bool {
	if rdb == nil {
		redisClient = nil
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting falls back to memory", "error", err)
		redisClient = nil
		return false
	}
	redisClient = rdb
	return true
}

// InitRedisRateLimiter dials addr and installs the client. Empty addr disables it.
func InitRedisRateLimiter(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if !UseRedis(rdb) {
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// RedisEnabled reports whether a Redis client is installed
func RedisEnabled() bool { return redisClient != nil }

// RateLimit picks the Redis limiter when Redis is up and the in-process one otherwise.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	if RedisEnabled() {
		return RedisRateLimit(maxRequests, window)
	}
	return SimpleRateLimit(maxRequests, window)
}

// RedisRateLimit implements a simple fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<window_seconds>:<identifier>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		ident := c.ClientIP()
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		ctx := c.Request.Context()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// fail-open
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
