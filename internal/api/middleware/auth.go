package middleware

import (
	"ctchen222/tictactoe-timetravel/internal/api/auth"
	"ctchen222/tictactoe-timetravel/internal/api/response"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const playerIDKey = "player_id"

// RequireAuth rejects requests without a valid bearer token. Browsers cannot set
// headers on a websocket handshake, so a "token" query parameter is accepted too.
func RequireAuth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			response.ErrorResponse(c, http.StatusUnauthorized, "missing token")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			response.ErrorResponse(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		c.Set(playerIDKey, claims.PlayerID())
		c.Next()
	}
}

// PlayerID returns the player resolved by RequireAuth.
func PlayerID(c *gin.Context) string {
	return c.GetString(playerIDKey)
}
