package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkwell-app/backend/internal/auth"
	"github.com/inkwell-app/backend/internal/httputil"
)

// Auth validates the Bearer token and loads the user into the request context.
// Sets "user_id" (string) and "user" (*models.User) for downstream handlers.
func Auth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondUnauthorized(c, "no authentication token provided")
			c.Abort()
			return
		}

		tokenString := header
		if strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		}

		user, err := authService.ValidateToken(tokenString)
		if err != nil {
			httputil.RespondUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
