// Package charging is the application service behind the HTTP API: dock
// check-in and check-out, reviews and station views.
package charging

import (
	"time"

	"go.uber.org/zap"

	"chargetracker-backend/internal/activecache"
	"chargetracker-backend/internal/dock"
	"chargetracker-backend/internal/metrics"
	"chargetracker-backend/internal/store"
)

// Notifier is told about stations that just got a free dock.
type Notifier interface {
	Dispatch(stationID string)
}

// Service ties the dock models, the store and the caches together.
type Service struct {
	store    store.Store
	registry *dock.Registry
	active   *activecache.Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService builds the service. active, notifier and m may be nil.
func NewService(
	s store.Store,
	active *activecache.Store,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:    s,
		registry: dock.NewRegistry(s.GetStation),
		active:   active,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Evict drops cached dock models so they are reloaded from the store.
func (s *Service) Evict(stationIDs ...string) {
	s.registry.Evict(stationIDs...)
}

func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	return ErrorCode(err)
}
