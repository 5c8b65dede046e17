package feedback

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/middleware"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/pkg/response"
)

// Handler handles feedback HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a feedback handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// SubmitRequest is the body for POST /feedback/submit/:eventId.
type SubmitRequest struct {
	Answers []models.Answer `json:"answers"`
}

func (h *Handler) eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// Submit handles POST /feedback/submit/:eventId.
func (h *Handler) Submit(c *gin.Context) {
	eventID, ok := h.eventID(c)
	if !ok {
		return
	}
	var body SubmitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	f, err := h.svc.Submit(c.Request.Context(), middleware.UserID(c), eventID, body.Answers)
	if err != nil {
		if response.Error(c, err) {
			h.logger.Error("submit feedback", zap.String("event_id", eventID.String()), zap.Error(err))
		}
		return
	}
	response.Created(c, gin.H{"id": f.ID, "message": "feedback submitted"})
}

// List handles GET /feedback/view/:eventId.
func (h *Handler) List(c *gin.Context) {
	eventID, ok := h.eventID(c)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), eventID)
	if err != nil {
		if response.Error(c, err) {
			h.logger.Error("list feedback", zap.String("event_id", eventID.String()), zap.Error(err))
		}
		return
	}
	response.OK(c, gin.H{"feedbacks": list})
}

// Certificate handles GET /feedback/certificate/:eventId.
func (h *Handler) Certificate(c *gin.Context) {
	eventID, ok := h.eventID(c)
	if !ok {
		return
	}
	cert, err := h.svc.Certificate(c.Request.Context(), middleware.UserID(c), eventID)
	if err != nil {
		if response.Error(c, err) {
			h.logger.Error("certificate", zap.String("event_id", eventID.String()), zap.Error(err))
		}
		return
	}
	response.OK(c, cert)
}
