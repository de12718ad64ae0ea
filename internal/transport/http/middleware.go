package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartplay-service/internal/auth"
)

const accessTokenCookie = "access_token"

// AuthMiddleware accepts the session token from the login cookie or an
// Authorization bearer header and stores the player identity on the context.
func AuthMiddleware(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		playerID, playerName, err := manager.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("playerID", playerID)
		c.Set("playerName", playerName)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func currentPlayerID(c *gin.Context) int64 {
	return c.GetInt64("playerID")
}
