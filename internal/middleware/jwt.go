package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/auth"
	"github.com/eventgrid/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
	// ContextTokenID is the key for the token's jti in gin context.
	ContextTokenID = "token_id"
	// ContextTokenExpiry is the key for the token's expiry time in gin context.
	ContextTokenExpiry = "token_expiry"
)

// JWT returns a middleware that validates JWT and sets user claims in context.
// Tokens revoked through denylist are rejected; a nil denylist skips that check.
func JWT(jwtService *auth.JWTService, denylist *auth.Denylist) gin.HandlerFunc {
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
		revoked, err := denylist.Revoked(c.Request.Context(), claims.ID)
		if err != nil {
			response.ServiceUnavailable(c, "token check unavailable")
			c.Abort()
			return
		}
		if revoked {
			response.Unauthorized(c, "token revoked")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiry, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, or uuid.Nil outside JWT routes.
func UserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ContextUserID)
	uid, _ := id.(uuid.UUID)
	return uid
}

// TokenLifetime returns the token id and how long it stays valid.
func TokenLifetime(c *gin.Context) (string, time.Duration) {
	id := c.GetString(ContextTokenID)
	exp, ok := c.Get(ContextTokenExpiry)
	if !ok {
		return id, 0
	}
	t, _ := exp.(time.Time)
	return id, time.Until(t)
}
