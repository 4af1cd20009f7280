package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chargetracker-backend/internal/model"
)

// SyncStations upserts station metadata and dock rows from the feed. Dock
// status and occupancy are never overwritten; docks missing from the feed
// are removed only while free. Returns the IDs of the stations written.
func (s *gormStore) SyncStations(ctx context.Context, stations []FeedStation) ([]string, error) {
	if len(stations) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(stations))
	var ids []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fs := range stations {
			if fs.ID == "" || seen[fs.ID] {
				continue
			}
			seen[fs.ID] = true

			if err := upsertStation(tx, fs, now); err != nil {
				return err
			}
			if err := upsertDocks(tx, fs, now); err != nil {
				return err
			}
			if err := recountDocks(tx, fs.ID); err != nil {
				return err
			}
			ids = append(ids, fs.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func upsertStation(tx *gorm.DB, fs FeedStation, now time.Time) error {
	st := model.Station{
		ID:        fs.ID,
		Name:      fs.Name,
		Address:   fs.Address,
		Latitude:  fs.Latitude,
		Longitude: fs.Longitude,
		OpenNow:   fs.OpenNow,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "address", "latitude", "longitude", "open_now", "updated_at"}),
	}).Create(&st).Error
	if err != nil {
		return fmt.Errorf("failed to upsert station %s: %w", fs.ID, err)
	}
	return nil
}

func upsertDocks(tx *gorm.DB, fs FeedStation, now time.Time) error {
	keep := make([]string, 0, len(fs.Docks))
	docks := make([]model.Dock, 0, len(fs.Docks))
	dup := make(map[string]bool, len(fs.Docks))
	for i, fd := range fs.Docks {
		if fd.ID == "" || dup[fd.ID] {
			continue
		}
		dup[fd.ID] = true
		keep = append(keep, fd.ID)
		docks = append(docks, model.Dock{
			StationID:   fs.ID,
			ID:          fd.ID,
			Position:    i + 1,
			ChargerType: fd.ChargerType,
			Status:      model.DockAvailable,
			UpdatedAt:   now,
		})
	}

	if len(docks) > 0 {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "station_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "charger_type"}),
		}).Create(&docks).Error
		if err != nil {
			return fmt.Errorf("failed to upsert docks of %s: %w", fs.ID, err)
		}
	}

	stale := tx.Where("station_id = ? AND status = ?", fs.ID, model.DockAvailable)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&model.Dock{}).Error; err != nil {
		return fmt.Errorf("failed to prune docks of %s: %w", fs.ID, err)
	}
	return nil
}

func recountDocks(tx *gorm.DB, stationID string) error {
	total := tx.Model(&model.Dock{}).Select("count(*)").Where("station_id = ?", stationID)
	available := tx.Model(&model.Dock{}).Select("count(*)").
		Where("station_id = ? AND status = ?", stationID, model.DockAvailable)
	err := tx.Model(&model.Station{}).Where("id = ?", stationID).Updates(map[string]any{
		"total_docks":     total,
		"available_docks": available,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to recount station %s: %w", stationID, err)
	}
	return nil
}
