package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chargetracker-backend/internal/charging"
)

var statusByCode = map[string]int{
	charging.CodeAlreadyCheckedIn: http.StatusConflict,
	charging.CodeDockUnavailable:  http.StatusConflict,
	charging.CodeStaleState:       http.StatusConflict,
	charging.CodeNotOccupant:      http.StatusForbidden,
	charging.CodeNotFound:         http.StatusNotFound,
	charging.CodeInvalidInput:     http.StatusBadRequest,
	charging.CodeCanceled:         http.StatusRequestTimeout,
}

// writeError maps a service error onto {"error": code, "message": text}.
// Internal errors are logged and not echoed to the client.
func (h *Handler) writeError(c *gin.Context, err error) {
	code := charging.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": charging.CodeInternal, "message": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": charging.CodeInvalidInput, "message": msg})
}
