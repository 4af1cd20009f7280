package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"chargetracker-backend/internal/charging"
	"chargetracker-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *charging.Service
	store   store.Store
	webpush *webpush.Options
	logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *charging.Service, s store.Store, webpushOptions *webpush.Options, logger *zap.Logger) *Handler {
	return &Handler{
		svc:     svc,
		store:   s,
		webpush: webpushOptions,
		logger:  logger,
	}
}
