package taxonomy

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/pkg/response"
)

// Handler serves the taxonomy tree.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a taxonomy handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Get handles GET /taxonomy.
func (h *Handler) Get(c *gin.Context) {
	tree, err := h.svc.Get(c.Request.Context())
	if err != nil {
		if response.Error(c, err) {
			h.logger.Error("fetch taxonomy", zap.Error(err))
		}
		return
	}
	response.OK(c, gin.H{"taxonomy": tree})
}

// Invalidate handles DELETE /taxonomy/cache.
func (h *Handler) Invalidate(c *gin.Context) {
	if err := h.svc.Invalidate(c.Request.Context()); err != nil {
		if response.Error(c, err) {
			h.logger.Error("invalidate taxonomy", zap.Error(err))
		}
		return
	}
	response.NoContent(c)
}
