package charging

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chargetracker-backend/internal/model"
	"chargetracker-backend/internal/parse"
	"chargetracker-backend/internal/rating"
	"chargetracker-backend/internal/review"
)

// ReviewInput is a review as submitted by a client. Tag fields accept the
// labels shown in the review form.
type ReviewInput struct {
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	ChargerType   string `json:"chargerType"`
	WaitTime      string `json:"waitTime"`
	ChargeOutcome string `json:"chargeOutcome"`
}

// SubmittedReview is the stored review with the station's new aggregate.
type SubmittedReview struct {
	Review      model.Review `json:"review"`
	Rating      float64      `json:"rating"`
	ReviewCount int64        `json:"reviewCount"`
}

func (in ReviewInput) toReview(stationID, userID string) (model.Review, error) {
	r := model.Review{
		StationID: stationID,
		AuthorID:  userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	var err error
	if in.ChargerType != "" {
		if r.ChargerTypeUsed, err = parse.ChargerType(in.ChargerType); err != nil {
			return r, fmt.Errorf("%w: %v", review.ErrInvalidInput, err)
		}
	}
	if in.WaitTime != "" {
		if r.WaitTime, err = parse.WaitTime(in.WaitTime); err != nil {
			return r, fmt.Errorf("%w: %v", review.ErrInvalidInput, err)
		}
	}
	if in.ChargeOutcome != "" {
		if r.ChargeOutcome, err = parse.ChargeOutcome(in.ChargeOutcome); err != nil {
			return r, fmt.Errorf("%w: %v", review.ErrInvalidInput, err)
		}
	}
	return r, review.Validate(r)
}

// SubmitReview validates and stores a review by userID.
func (s *Service) SubmitReview(ctx context.Context, stationID, userID string, in ReviewInput) (*SubmittedReview, error) {
	r, err := in.toReview(stationID, userID)
	if err != nil {
		s.metrics.Review(resultLabel(err))
		return nil, err
	}
	r.ID = uuid.NewString()
	r.Timestamp = s.now().UnixMilli()

	st, err := s.store.AddReview(ctx, &r)
	s.metrics.Review(resultLabel(err))
	if err != nil {
		s.logger.Warn("failed to store review",
			zap.String("station_id", stationID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("review submitted",
		zap.String("station_id", stationID),
		zap.String("review_id", r.ID),
		zap.Int("rating", r.Rating),
		zap.Int64("review_count", st.ReviewCount),
	)
	return &SubmittedReview{
		Review:      r,
		Rating:      rating.Display(st.AverageRating),
		ReviewCount: st.ReviewCount,
	}, nil
}

// Reviews returns a station's reviews in the requested order.
func (s *Service) Reviews(ctx context.Context, stationID string, c review.Criterion) ([]model.Review, error) {
	reviews, err := s.store.ListReviews(ctx, stationID)
	if err != nil {
		return nil, err
	}
	return review.SortBy(reviews, c), nil
}
