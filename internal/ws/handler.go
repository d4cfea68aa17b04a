package ws

import (
	"net/http"

	"scamfeed/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenParser resolves an access token to a user ID
type TokenParser interface {
	Parse(token string) (string, error)
}

// HandleWS upgrades to the live feed. The token comes from ?token= since
// browsers cannot set headers on websocket requests.
func HandleWS(hub *Hub, tokens TokenParser, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, err := tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(userID, conn, hub)
		go client.Run()
	}
}
