package charging

import (
	"context"

	"go.uber.org/zap"

	"chargetracker-backend/internal/dock"
	"chargetracker-backend/internal/store"
)

// TransitionResult is the station availability after a check-in or check-out.
type TransitionResult struct {
	StationID      string `json:"stationId"`
	DockID         string `json:"dockId"`
	AvailableDocks int    `json:"availableDocks"`
	TotalDocks     int    `json:"totalDocks"`
	IsAvailable    bool   `json:"isAvailable"`
}

func newResult(stationID, dockID string, c dock.Counts) *TransitionResult {
	return &TransitionResult{
		StationID:      stationID,
		DockID:         dockID,
		AvailableDocks: c.Available,
		TotalDocks:     c.Total,
		IsAvailable:    c.IsAvailable(),
	}
}

// CheckIn claims dockID at stationID for userID.
func (s *Service) CheckIn(ctx context.Context, stationID, dockID, userID string) (*TransitionResult, error) {
	m, err := s.registry.Get(ctx, stationID)
	if err != nil {
		s.metrics.CheckIn(resultLabel(err))
		return nil, err
	}

	counts, err := m.CheckIn(ctx, userID, dockID, s.store.ApplyTransition)
	s.metrics.CheckIn(resultLabel(err))
	if err != nil {
		s.afterFailure(ctx, stationID, dockID, userID, "check-in", err)
		return nil, err
	}

	s.invalidateActive(ctx, userID)
	s.logger.Info("dock checked in",
		zap.String("station_id", stationID),
		zap.String("dock_id", dockID),
		zap.String("user_id", userID),
		zap.Int("available", counts.Available),
	)
	return newResult(stationID, dockID, counts), nil
}

// CheckOut releases dockID at stationID. A station going from no free dock
// to one triggers a push notification.
func (s *Service) CheckOut(ctx context.Context, stationID, dockID, userID string) (*TransitionResult, error) {
	m, err := s.registry.Get(ctx, stationID)
	if err != nil {
		s.metrics.CheckOut(resultLabel(err))
		return nil, err
	}

	counts, err := m.CheckOut(ctx, userID, dockID, s.store.ApplyTransition)
	s.metrics.CheckOut(resultLabel(err))
	if err != nil {
		s.afterFailure(ctx, stationID, dockID, userID, "check-out", err)
		return nil, err
	}

	s.invalidateActive(ctx, userID)
	s.logger.Info("dock checked out",
		zap.String("station_id", stationID),
		zap.String("dock_id", dockID),
		zap.String("user_id", userID),
		zap.Int("available", counts.Available),
	)

	if counts.Available == 1 && s.notifier != nil {
		s.notifier.Dispatch(stationID)
	}
	return newResult(stationID, dockID, counts), nil
}

// afterFailure evicts the station model and the user's cached check-ins when
// the store disagreed with the model, so the next request works from
// persisted state.
func (s *Service) afterFailure(ctx context.Context, stationID, dockID, userID, op string, err error) {
	fields := []zap.Field{
		zap.String("station_id", stationID),
		zap.String("dock_id", dockID),
		zap.String("user_id", userID),
		zap.String("code", ErrorCode(err)),
		zap.Error(err),
	}
	if rejected(err) {
		s.logger.Debug(op+" rejected", fields...)
		return
	}
	s.registry.Evict(stationID)
	s.invalidateActive(context.WithoutCancel(ctx), userID)
	s.logger.Warn(op+" failed to persist", fields...)
}

// ActiveCheckIns lists the docks userID holds, oldest check-in first. A
// cached list is served as is; on a miss the store is read and cached.
func (s *Service) ActiveCheckIns(ctx context.Context, userID string) ([]store.ActiveCheckIn, error) {
	cached, ok, err := s.active.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to read active check-in cache", zap.String("user_id", userID), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	active, err := s.store.ActiveCheckIns(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.active.Set(ctx, userID, active); err != nil {
		s.logger.Warn("failed to cache active check-ins", zap.String("user_id", userID), zap.Error(err))
	}
	return active, nil
}

func (s *Service) invalidateActive(ctx context.Context, userID string) {
	if err := s.active.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate active check-in cache", zap.String("user_id", userID), zap.Error(err))
	}
}
