package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chargetracker-backend/internal/dock"
	"chargetracker-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	GetStation(ctx context.Context, id string) (*model.Station, error)
	ListStations(ctx context.Context) ([]model.Station, error)
	ApplyTransition(ctx context.Context, t dock.Transition) error
	ActiveCheckIns(ctx context.Context, userID string) ([]ActiveCheckIn, error)
	AddReview(ctx context.Context, r *model.Review) (*model.Station, error)
	ListReviews(ctx context.Context, stationID string) ([]model.Review, error)
	SyncStations(ctx context.Context, stations []FeedStation) ([]string, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB returns the underlying handle.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// GetStation loads a station with its docks in position order.
func (s *gormStore) GetStation(ctx context.Context, id string) (*model.Station, error) {
	var st model.Station
	err := s.db.WithContext(ctx).
		Preload("Docks", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		First(&st, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load station %s: %w", id, err)
	}
	return &st, nil
}

// ListStations returns all stations without docks, ordered by name.
func (s *gormStore) ListStations(ctx context.Context) ([]model.Station, error) {
	var stations []model.Station
	if err := s.db.WithContext(ctx).Order("name, id").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

func (s *gormStore) stationExists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&model.Station{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	return nil
}
