package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chargetracker-backend/internal/charging"
	"chargetracker-backend/internal/mw"
	"chargetracker-backend/internal/review"
)

// GetReviews handles GET /api/stations/{station_id}/reviews?sort=.
func (h *Handler) GetReviews(c *gin.Context) {
	criterion, err := review.ParseCriterion(c.Query("sort"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	reviews, err := h.svc.Reviews(c.Request.Context(), c.Param("station_id"), criterion)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// PostReview handles POST /api/stations/{station_id}/reviews.
func (h *Handler) PostReview(c *gin.Context) {
	var in charging.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	userID, _ := mw.UserID(c)
	submitted, err := h.svc.SubmitReview(c.Request.Context(), c.Param("station_id"), userID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitted)
}
