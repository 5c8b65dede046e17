package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/pkg/response"
)

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Gender      string   `json:"gender"`
	PhoneNumber string   `json:"phone_number"`
	State       string   `json:"state"`
	Nationality string   `json:"nationality"`
	Profession  string   `json:"profession"`
	Interests   []string `json:"interests"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Session exposes the request-scoped identity set by the auth middlewares.
type Session interface {
	UserID(c *gin.Context) uuid.UUID
	CurrentUser(c *gin.Context) *models.User
	TokenLifetime(c *gin.Context) (string, time.Duration)
}

// Handler handles auth and user HTTP endpoints.
type Handler struct {
	svc      *Service
	denylist *Denylist
	session  Session
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, denylist *Denylist, session Session, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, denylist: denylist, session: session, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if response.Error(c, err) {
		h.logger.Error(msg, zap.Error(err))
	}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.svc.Signup(c.Request.Context(), SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
		State:       req.State,
		Nationality: req.Nationality,
		Profession:  req.Profession,
		Interests:   req.Interests,
	})
	if err != nil {
		h.fail(c, err, "signup failed")
		return
	}
	response.Created(c, user.ToPublic())
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	token, user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, "login failed")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *Handler) Logout(c *gin.Context) {
	id, ttl := h.session.TokenLifetime(c)
	if err := h.denylist.Revoke(c.Request.Context(), id, ttl); err != nil {
		h.logger.Error("revoke token", zap.Error(err))
		response.Internal(c, "failed to log out")
		return
	}
	response.OK(c, gin.H{"message": "logged out"})
}

// Current handles GET /auth/current.
func (h *Handler) Current(c *gin.Context) {
	user := h.session.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "missing user context")
		return
	}
	response.OK(c, user)
}

// ListUsers handles GET /user/all.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list users")
		return
	}
	response.OK(c, users)
}

// GetUser handles GET /user/:userId.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "get user")
		return
	}
	response.OK(c, user)
}

// Roles handles GET /user/roles.
func (h *Handler) Roles(c *gin.Context) {
	response.OK(c, AllRoles())
}
