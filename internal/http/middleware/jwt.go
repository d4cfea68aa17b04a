package middleware

import (
	"net/http"
	"strings"

	"scamfeed/internal/logger"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user ID
const ContextUserID = "user_id"

// TokenParser resolves an access token to a user ID
type TokenParser interface {
	Parse(token string) (string, error)
}

// JWT requires a "Bearer" Authorization header and stores the user ID in the context.
func JWT(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			return
		}
		userID, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ContextUserID, userID)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), "user_id", userID))
		c.Next()
	}
}
