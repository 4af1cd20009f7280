package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chargetracker-backend/internal/model"
	"chargetracker-backend/internal/rating"
)

const maxReviewAttempts = 3

// AddReview appends r and recomputes the station aggregate from every review
// row, so the stored average matches rating.AverageOf over the station's
// reviews. The aggregate update is guarded by the review count it was
// computed from and retried when another review lands first.
func (s *gormStore) AddReview(ctx context.Context, r *model.Review) (*model.Station, error) {
	var lastErr error
	for attempt := 0; attempt < maxReviewAttempts; attempt++ {
		st, err := s.addReviewOnce(ctx, r)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *gormStore) addReviewOnce(ctx context.Context, r *model.Review) (*model.Station, error) {
	var st model.Station
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&st, "id = ?", r.StationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("station %s: %w", r.StationID, ErrNotFound)
			}
			return fmt.Errorf("failed to load station %s: %w", r.StationID, err)
		}

		var existing []int
		if err := tx.Model(&model.Review{}).
			Where("station_id = ?", st.ID).
			Pluck("rating", &existing).Error; err != nil {
			return fmt.Errorf("failed to load ratings of %s: %w", st.ID, err)
		}
		ratings := make([]float64, 0, len(existing)+1)
		for _, v := range existing {
			ratings = append(ratings, float64(v))
		}
		ratings = append(ratings, float64(r.Rating))
		avg := rating.AverageOf(ratings)
		count := int64(len(ratings))

		res := tx.Model(&model.Station{}).
			Where("id = ? AND review_count = ?", st.ID, st.ReviewCount).
			Updates(map[string]any{
				"average_rating": avg,
				"review_count":   count,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update rating of %s: %w", st.ID, res.Error)
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("rating of %s: %w", st.ID, ErrConflict)
		}

		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("failed to insert review %s: %w", r.ID, err)
		}

		st.AverageRating = avg
		st.ReviewCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListReviews returns every review of a station, newest first.
func (s *gormStore) ListReviews(ctx context.Context, stationID string) ([]model.Review, error) {
	db := s.db.WithContext(ctx)
	if err := s.stationExists(db, stationID); err != nil {
		return nil, err
	}

	reviews := []model.Review{}
	if err := db.Where("station_id = ?", stationID).
		Order(`"timestamp" DESC, id`).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews of %s: %w", stationID, err)
	}
	return reviews, nil
}
