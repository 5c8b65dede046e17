package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/middleware"
	"github.com/eventgrid/backend/pkg/response"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateOrganizationRequest is the body for POST /org/create.
type CreateOrganizationRequest struct {
	Name         string   `json:"name" binding:"required"`
	Email        string   `json:"email" binding:"required,email"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	POC          string   `json:"poc"`
	Contact      string   `json:"contact"`
	MemberDomain []string `json:"member_domain"`
}

// EditOrganizationRequest is the body for PATCH /org/:orgId/edit.
type EditOrganizationRequest struct {
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	Address      *string   `json:"address"`
	City         *string   `json:"city"`
	State        *string   `json:"state"`
	POC          *string   `json:"poc"`
	Contact      *string   `json:"contact"`
	MemberDomain *[]string `json:"member_domain"`
}

// AddUsersRequest is the body for POST /org/:orgId/add-users.
type AddUsersRequest struct {
	UserEmails []string `json:"user_emails" binding:"required"`
}

// AssignAdminRequest is the body for POST /org/assign-admin.
type AssignAdminRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// EditAdminRequest is the body for POST /org/edit-admin.
type EditAdminRequest struct {
	OrgID    uuid.UUID `json:"org_id" binding:"required"`
	AdminID  uuid.UUID `json:"admin_id" binding:"required"`
	NewEmail string    `json:"new_email" binding:"required"`
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if response.Error(c, err) {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	}
}

func orgID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /org/create.
func (h *Handler) Create(c *gin.Context) {
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and email required")
		return
	}
	org, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), CreateInput{
		Name:         body.Name,
		Email:        body.Email,
		Address:      body.Address,
		City:         body.City,
		State:        body.State,
		POC:          body.POC,
		Contact:      body.Contact,
		MemberDomain: body.MemberDomain,
	})
	if err != nil {
		h.fail(c, err, "create organization")
		return
	}
	response.Created(c, org)
}

// Edit handles PATCH /org/:orgId/edit.
func (h *Handler) Edit(c *gin.Context) {
	id, ok := orgID(c)
	if !ok {
		return
	}
	var body EditOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	org, err := h.svc.Edit(c.Request.Context(), middleware.UserID(c), id, EditInput(body))
	if err != nil {
		h.fail(c, err, "edit organization")
		return
	}
	response.OK(c, org)
}

// Delete handles DELETE /org/:orgId.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := orgID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.fail(c, err, "delete organization")
		return
	}
	response.OK(c, gin.H{"message": "organization deleted"})
}

// AddUsers handles POST /org/:orgId/add-users.
func (h *Handler) AddUsers(c *gin.Context) {
	id, ok := orgID(c)
	if !ok {
		return
	}
	var body AddUsersRequest
	if err := c.ShouldBindJSON(&body); err != nil || len(body.UserEmails) == 0 {
		response.BadRequest(c, "provide an array of user emails")
		return
	}
	res, err := h.svc.AddMembers(c.Request.Context(), middleware.UserID(c), id, body.UserEmails)
	if err != nil {
		h.fail(c, err, "add organization users")
		return
	}
	response.OK(c, res)
}

// AssignAdmin handles POST /org/assign-admin.
func (h *Handler) AssignAdmin(c *gin.Context) {
	var body AssignAdminRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "organization name and user email are required")
		return
	}
	org, err := h.svc.AssignAdminByName(c.Request.Context(), middleware.UserID(c), body.Name, body.Email)
	if err != nil {
		h.fail(c, err, "assign organization admin")
		return
	}
	response.OK(c, org)
}

// EditAdmin handles POST /org/edit-admin.
func (h *Handler) EditAdmin(c *gin.Context) {
	var body EditAdminRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "organization id, admin id and new email are required")
		return
	}
	org, err := h.svc.ReplaceAdmin(c.Request.Context(), middleware.UserID(c), body.OrgID, body.AdminID, body.NewEmail)
	if err != nil {
		h.fail(c, err, "replace organization admin")
		return
	}
	response.OK(c, org)
}

// List handles GET /org/all.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list organizations")
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /org/admin. Returns organizations the current user administers.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListByAdmin(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err, "list admin organizations")
		return
	}
	response.OK(c, list)
}

// Get handles GET /org/:orgId.
func (h *Handler) Get(c *gin.Context) {
	id, ok := orgID(c)
	if !ok {
		return
	}
	org, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "get organization")
		return
	}
	response.OK(c, org)
}
