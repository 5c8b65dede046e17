package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/pkg/response"
)

// RequireRole allows the request when the loaded user holds any of roles. Super Admin always passes.
// It must run after LoadUser.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !user.HasRole(models.RoleSuperAdmin) && !user.HasAnyRole(roles...) {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
