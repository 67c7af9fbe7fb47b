package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/backend/internal/auth"
	"github.com/hireloop/backend/pkg/response"
)

const (
	// ContextAdminID is the key for the admin ID in gin context.
	ContextAdminID = "admin_id"
	// ContextAdminEmail is the key for the admin email in gin context.
	ContextAdminEmail = "admin_email"
)

// JWT returns a middleware that validates an admin JWT and sets claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextAdminID, claims.AdminID)
		c.Set(ContextAdminEmail, claims.Email)
		c.Next()
	}
}
