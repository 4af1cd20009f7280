package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"chargetracker-backend/internal/dock"
	"chargetracker-backend/internal/model"
)

// ApplyTransition commits a dock status change, the station's recomputed
// available count and, on check-out, the archived period in one transaction.
// The dock row is compare-and-swapped against the transition's From state;
// a lost race yields ErrConflict and nothing is written.
func (s *gormStore) ApplyTransition(ctx context.Context, t dock.Transition) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Dock{}).
			Where("station_id = ? AND id = ? AND status = ?", t.StationID, t.DockID, t.From)

		updates := map[string]any{
			"status":     t.To,
			"updated_at": t.At,
		}
		if t.IsCheckIn() {
			updates["occupant_id"] = t.UserID
			updates["checked_in_at"] = t.At
		} else {
			q = q.Where("occupant_id = ?", t.UserID)
			updates["occupant_id"] = ""
			updates["checked_in_at"] = nil
		}

		res := q.Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update dock %s/%s: %w", t.StationID, t.DockID, res.Error)
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("dock %s/%s: %w", t.StationID, t.DockID, ErrConflict)
		}

		if err := recountAvailable(tx, t.StationID); err != nil {
			return err
		}

		if !t.IsCheckIn() {
			start := t.At
			if t.Since != nil {
				start = *t.Since
			}
			history := model.CheckInHistory{
				StationID:   t.StationID,
				DockID:      t.DockID,
				UserID:      t.UserID,
				PeriodStart: start,
				PeriodEnd:   t.At,
			}
			if err := tx.Create(&history).Error; err != nil {
				return fmt.Errorf("failed to archive check-in for dock %s/%s: %w", t.StationID, t.DockID, err)
			}
		}
		return nil
	})
}

func recountAvailable(tx *gorm.DB, stationID string) error {
	available := tx.Model(&model.Dock{}).
		Select("count(*)").
		Where("station_id = ? AND status = ?", stationID, model.DockAvailable)
	if err := tx.Model(&model.Station{}).
		Where("id = ?", stationID).
		Update("available_docks", available).Error; err != nil {
		return fmt.Errorf("failed to recount station %s: %w", stationID, err)
	}
	return nil
}

// ActiveCheckIns lists the docks userID currently holds across all stations.
func (s *gormStore) ActiveCheckIns(ctx context.Context, userID string) ([]ActiveCheckIn, error) {
	out := []ActiveCheckIn{}
	err := s.db.WithContext(ctx).
		Model(&model.Dock{}).
		Select("docks.station_id, stations.name AS station_name, docks.id AS dock_id, docks.checked_in_at").
		Joins("JOIN stations ON stations.id = docks.station_id").
		Where("docks.occupant_id = ? AND docks.status = ?", userID, model.DockInUse).
		Order("docks.checked_in_at").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins of %s: %w", userID, err)
	}
	return out, nil
}
