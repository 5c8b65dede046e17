package approval

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/middleware"
	"github.com/eventgrid/backend/pkg/response"
)

// Handler handles category and type HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an approval handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// ProposeCategoryRequest is the body for POST /category/add.
type ProposeCategoryRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DeptID      uuid.UUID `json:"dept_id"`
}

// ProposeTypeRequest is the body for POST /type/add.
type ProposeTypeRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OrgID       *uuid.UUID `json:"org_id"`
}

// ApproveTypeRequest is the body for PATCH /type/approve/:typeId.
type ApproveTypeRequest struct {
	OrgID uuid.UUID `json:"org_id"`
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if response.Error(c, err) {
		h.logger.Error(msg, zap.Error(err))
	}
}

func pathID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

func queryDept(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("dept_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "invalid department id")
		return nil, false
	}
	return &id, true
}

// ListCategories handles GET /category?dept_id=.
func (h *Handler) ListCategories(c *gin.Context) {
	dept, ok := queryDept(c)
	if !ok {
		return
	}
	list, err := h.svc.ListCategories(c.Request.Context(), dept)
	if err != nil {
		h.fail(c, err, "list categories")
		return
	}
	response.OK(c, list)
}

// ListOrgCategories handles GET /category/oget?dept_id=.
func (h *Handler) ListOrgCategories(c *gin.Context) {
	dept, ok := queryDept(c)
	if !ok {
		return
	}
	list, err := h.svc.ListCategoriesForOrgAdmin(c.Request.Context(), middleware.UserID(c), dept)
	if err != nil {
		h.fail(c, err, "list organization categories")
		return
	}
	response.OK(c, list)
}

// ProposeCategory handles POST /category/add.
func (h *Handler) ProposeCategory(c *gin.Context) {
	var body ProposeCategoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	cat, err := h.svc.ProposeCategory(c.Request.Context(), middleware.UserID(c), CategoryInput{
		DepartmentID: body.DeptID,
		Name:         body.Name,
		Description:  body.Description,
	})
	if err != nil {
		h.fail(c, err, "propose category")
		return
	}
	response.Created(c, cat)
}

// ApproveCategory handles PATCH /category/approve/:categoryId.
func (h *Handler) ApproveCategory(c *gin.Context) {
	id, ok := pathID(c, "categoryId", "category")
	if !ok {
		return
	}
	cat, err := h.svc.ApproveCategory(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err, "approve category")
		return
	}
	response.OK(c, cat)
}

// DeleteCategory handles DELETE /category/delete/:categoryId.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "categoryId", "category")
	if !ok {
		return
	}
	if err := h.svc.DeleteCategory(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.fail(c, err, "delete category")
		return
	}
	response.OK(c, gin.H{"message": "category deleted"})
}

// ListTypes handles GET /type.
func (h *Handler) ListTypes(c *gin.Context) {
	list, err := h.svc.ListTypes(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list types")
		return
	}
	response.OK(c, list)
}

// ProposeType handles POST /type/add.
func (h *Handler) ProposeType(c *gin.Context) {
	var body ProposeTypeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	typ, err := h.svc.ProposeType(c.Request.Context(), middleware.UserID(c), TypeInput{
		OrganizationID: body.OrgID,
		Name:           body.Name,
		Description:    body.Description,
	})
	if err != nil {
		h.fail(c, err, "propose type")
		return
	}
	response.Created(c, typ)
}

// ApproveType handles PATCH /type/approve/:typeId.
func (h *Handler) ApproveType(c *gin.Context) {
	id, ok := pathID(c, "typeId", "type")
	if !ok {
		return
	}
	var body ApproveTypeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "org_id required")
		return
	}
	typ, err := h.svc.ApproveType(c.Request.Context(), middleware.UserID(c), id, body.OrgID)
	if err != nil {
		h.fail(c, err, "approve type")
		return
	}
	response.OK(c, typ)
}

// DeleteType handles DELETE /type/delete/:typeId.
func (h *Handler) DeleteType(c *gin.Context) {
	id, ok := pathID(c, "typeId", "type")
	if !ok {
		return
	}
	if err := h.svc.DeleteType(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.fail(c, err, "delete type")
		return
	}
	response.OK(c, gin.H{"message": "type deleted"})
}
