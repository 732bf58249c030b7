package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/service"
	"github.com/ztas-io/analytics-api/internal/utils"
)

// AuthMiddleware validates the Bearer JWT and adds user info to context. An
// expired token answers with a distinct code so clients can re-authenticate
// instead of treating it as a bad credential.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				tokenExpired(c)
			} else {
				unauthorized(c, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// userID returns the authenticated user id set by AuthMiddleware.
func userID(c *gin.Context) (string, bool) {
	id, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	return id.(string), true
}
