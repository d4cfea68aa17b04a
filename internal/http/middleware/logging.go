package middleware

import (
	"time"

	"scamfeed/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger tags the request context with a request ID and logs the
// outcome once the handler chain returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), "request_id", reqID))

		c.Next()

		log := logger.WithContext(c.Request.Context())
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		if uid := c.GetString(ContextUserID); uid != "" {
			args = append(args, "user_id", uid)
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", args...)
		case c.Writer.Status() >= 400:
			log.Warn("request", args...)
		default:
			log.Debug("request", args...)
		}
	}
}
