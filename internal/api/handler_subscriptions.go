package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chargetracker-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint           string   `json:"endpoint" binding:"required"`
	P256DH             string   `json:"p256dh" binding:"required"`
	Auth               string   `json:"auth" binding:"required"`
	SubscribedStations []string `json:"subscribed_stations"`
}

// PutSubscription handles the creation or replacement of a subscription.
// Unknown station IDs are ignored.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.store.DB().WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit(clause.Associations).Create(&subscription).Error; err != nil {
			return err
		}

		stations := []*model.Station{}
		if len(req.SubscribedStations) > 0 {
			if err := tx.Select("id").Where("id IN ?", req.SubscribedStations).Find(&stations).Error; err != nil {
				return err
			}
		}

		return tx.Model(&subscription).Omit("Stations.*").Association("Stations").Replace(stations)
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	sub := model.PushSubscription{Endpoint: req.Endpoint}
	err := h.store.DB().WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sub).Association("Stations").Clear(); err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam returns a query value without URL decoding; push endpoints
// are stored exactly as the browser reported them.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		badRequest(c, "endpoint is required")
		return
	}

	var subscription model.PushSubscription
	err := h.store.DB().WithContext(c.Request.Context()).
		Preload("Stations", func(db *gorm.DB) *gorm.DB { return db.Select("id").Order("id") }).
		First(&subscription, "endpoint = ?", raw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "subscription not found"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	stationIDs := make([]string, len(subscription.Stations))
	for i, st := range subscription.Stations {
		stationIDs[i] = st.ID
	}

	c.JSON(http.StatusOK, gin.H{"subscribed_stations": stationIDs})
}
