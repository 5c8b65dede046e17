package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventgrid/backend/internal/apperr"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err in the envelope. Unclassified and internal errors never expose their cause.
// It reports whether the response was a server error so callers can log it.
func Error(c *gin.Context, err error) bool {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.KindInternal {
		Internal(c, "internal server error")
		return true
	}
	c.JSON(StatusFor(e.Kind), Body{Success: false, Error: e.Message, Code: e.Code, Details: e.Details})
	return false
}
