package departments

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/middleware"
	"github.com/eventgrid/backend/pkg/response"
)

// Handler handles department HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a departments handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateDepartmentRequest is the body for POST /department/create.
type CreateDepartmentRequest struct {
	OrgID       uuid.UUID `json:"org_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
}

// EditDepartmentRequest is the body for PATCH /department/:deptId/edit.
type EditDepartmentRequest struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

// AddUsersRequest is the body for POST /department/:deptId/add-users.
type AddUsersRequest struct {
	UserEmails []string `json:"user_emails" binding:"required"`
}

// AssignAdminRequest is the body for POST /department/:deptId/assign-admin.
type AssignAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

// ReplaceAdminRequest is the body for POST /department/:deptId/replace-admin.
type ReplaceAdminRequest struct {
	OldAdminID uuid.UUID `json:"old_admin_id" binding:"required"`
	NewEmail   string    `json:"new_email" binding:"required"`
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if response.Error(c, err) {
		h.logger.Error(msg, zap.Error(err), zap.String("dept_id", c.Param("deptId")))
	}
}

func deptID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("deptId"))
	if err != nil {
		response.BadRequest(c, "invalid department id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /department/create.
func (h *Handler) Create(c *gin.Context) {
	var body CreateDepartmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "org_id and name required")
		return
	}
	dept, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), CreateInput{
		OrganizationID: body.OrgID,
		Name:           body.Name,
		Type:           body.Type,
		Description:    body.Description,
	})
	if err != nil {
		h.fail(c, err, "create department")
		return
	}
	response.Created(c, dept)
}

// Edit handles PATCH /department/:deptId/edit.
func (h *Handler) Edit(c *gin.Context) {
	id, ok := deptID(c)
	if !ok {
		return
	}
	var body EditDepartmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	dept, err := h.svc.Edit(c.Request.Context(), middleware.UserID(c), id, EditInput(body))
	if err != nil {
		h.fail(c, err, "edit department")
		return
	}
	response.OK(c, dept)
}

// Delete handles DELETE /department/:deptId.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := deptID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.fail(c, err, "delete department")
		return
	}
	response.OK(c, gin.H{"message": "department deleted"})
}

// AddUsers handles POST /department/:deptId/add-users.
func (h *Handler) AddUsers(c *gin.Context) {
	id, ok := deptID(c)
	if !ok {
		return
	}
	var body AddUsersRequest
	if err := c.ShouldBindJSON(&body); err != nil || len(body.UserEmails) == 0 {
		response.BadRequest(c, "no user emails provided")
		return
	}
	res, err := h.svc.AddMembers(c.Request.Context(), middleware.UserID(c), id, body.UserEmails)
	if err != nil {
		h.fail(c, err, "add department users")
		return
	}
	response.OK(c, res)
}

// AssignAdmin handles POST /department/:deptId/assign-admin.
func (h *Handler) AssignAdmin(c *gin.Context) {
	id, ok := deptID(c)
	if !ok {
		return
	}
	var body AssignAdminRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email required")
		return
	}
	dept, err := h.svc.AssignAdmin(c.Request.Context(), middleware.UserID(c), id, body.Email)
	if err != nil {
		h.fail(c, err, "assign department admin")
		return
	}
	response.OK(c, dept)
}

// ReplaceAdmin handles POST /department/:deptId/replace-admin.
func (h *Handler) ReplaceAdmin(c *gin.Context) {
	id, ok := deptID(c)
	if !ok {
		return
	}
	var body ReplaceAdminRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "old_admin_id and new_email required")
		return
	}
	dept, err := h.svc.ReplaceAdmin(c.Request.Context(), middleware.UserID(c), id, body.OldAdminID, body.NewEmail)
	if err != nil {
		h.fail(c, err, "replace department admin")
		return
	}
	response.OK(c, dept)
}

// List handles GET /department?org_id=.
func (h *Handler) List(c *gin.Context) {
	var orgID *uuid.UUID
	if raw := c.Query("org_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			return
		}
		orgID = &id
	}
	list, err := h.svc.List(c.Request.Context(), orgID)
	if err != nil {
		h.fail(c, err, "list departments")
		return
	}
	response.OK(c, list)
}

// Get handles GET /department/:deptId.
func (h *Handler) Get(c *gin.Context) {
	id, ok := deptID(c)
	if !ok {
		return
	}
	dept, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err, "get department")
		return
	}
	response.OK(c, dept)
}

// ListMine handles GET /department/admin/departments.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListByAdmin(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err, "list admin departments")
		return
	}
	response.OK(c, list)
}

// Collaborators handles GET /department/collaboration/:deptId?mode=internal|external.
func (h *Handler) Collaborators(c *gin.Context) {
	id, ok := deptID(c)
	if !ok {
		return
	}
	mode := CollaborationMode(c.Query("mode"))
	switch mode {
	case CollaborationAll, CollaborationInternal, CollaborationExternal:
	default:
		response.BadRequest(c, "mode must be internal or external")
		return
	}
	list, err := h.svc.Collaborators(c.Request.Context(), id, mode)
	if err != nil {
		h.fail(c, err, "list collaboration departments")
		return
	}
	response.OK(c, list)
}
