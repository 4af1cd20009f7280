package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chargetracker-backend/internal/model"
	"chargetracker-backend/internal/parse"
)

// GetStations handles GET /api/stations.
func (h *Handler) GetStations(c *gin.Context) {
	stations, err := h.svc.Stations(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stations)
}

// GetStation handles GET /api/stations/{station_id}. The optional status
// query keeps only docks in that state.
func (h *Handler) GetStation(c *gin.Context) {
	var status model.DockStatus
	if raw := c.Query("status"); raw != "" {
		s, err := parse.DockStatus(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		status = s
	}

	view, err := h.svc.Station(c.Request.Context(), c.Param("station_id"), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
