package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chargetracker-backend/internal/mw"
)

// CheckIn handles POST /api/stations/{station_id}/docks/{dock_id}/check-in.
func (h *Handler) CheckIn(c *gin.Context) {
	userID, _ := mw.UserID(c)
	res, err := h.svc.CheckIn(c.Request.Context(), c.Param("station_id"), c.Param("dock_id"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CheckOut handles POST /api/stations/{station_id}/docks/{dock_id}/check-out.
func (h *Handler) CheckOut(c *gin.Context) {
	userID, _ := mw.UserID(c)
	res, err := h.svc.CheckOut(c.Request.Context(), c.Param("station_id"), c.Param("dock_id"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetMyCheckIns handles GET /api/me/check-ins.
func (h *Handler) GetMyCheckIns(c *gin.Context) {
	userID, _ := mw.UserID(c)
	active, err := h.svc.ActiveCheckIns(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkIns": active})
}
