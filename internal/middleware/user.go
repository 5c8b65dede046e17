package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/pkg/response"
)

// ContextUser is the key for the loaded *models.User in gin context.
const ContextUser = "user"

// UserLoader fetches the current state of a user.
type UserLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// LoadUser loads the authenticated user so that role checks see stored, derived roles.
// It must run after JWT.
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := UserID(c)
		if id == uuid.Nil {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		user, err := users.Get(c.Request.Context(), id)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				response.Unauthorized(c, "user no longer exists")
			} else {
				response.Internal(c, "failed to load user")
			}
			c.Abort()
			return
		}
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// Session adapts the context accessors of this package for handlers that cannot import it.
type Session struct{}

func (Session) UserID(c *gin.Context) uuid.UUID { return UserID(c) }
func (Session) CurrentUser(c *gin.Context) *models.User { return CurrentUser(c) }
func (Session) TokenLifetime(c *gin.Context) (string, time.Duration) { return TokenLifetime(c) }
