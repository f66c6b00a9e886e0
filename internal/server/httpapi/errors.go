package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
	"github.com/gin-gonic/gin"
)

// statusOf maps a service error to its HTTP status and the public reason.
// Only sentinel texts are exposed.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, common.ErrorValidation.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrNoPasswordSet):
		return http.StatusUnauthorized, common.ErrNoPasswordSet.Error()
	case errors.Is(err, common.ErrInvalidCredential):
		return http.StatusUnauthorized, common.ErrInvalidCredential.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, common.ErrorUnauthorized.Error()
	case errors.Is(err, common.ErrorUnavailable):
		return http.StatusInternalServerError, common.ErrorUnavailable.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, reason := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, wire.ErrorResponse{Error: reason})
}

func badRequest(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, wire.ErrorResponse{Error: reason})
}
