// Package review orders and validates station reviews.
package review

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"chargetracker-backend/internal/model"
)

// Criterion names a display ordering.
type Criterion string

const (
	Newest       Criterion = "newest"
	Oldest       Criterion = "oldest"
	Rating       Criterion = "rating"
	LowestRating Criterion = "lowest_rating"
)

// ParseCriterion accepts the criterion names and the sort tokens used by the
// mobile client. An empty string selects Newest.
func ParseCriterion(raw string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "newest", "timestamp_desc":
		return Newest, nil
	case "oldest", "timestamp_asc":
		return Oldest, nil
	case "rating", "highest_rating", "rating_desc":
		return Rating, nil
	case "lowest_rating", "rating_asc":
		return LowestRating, nil
	}
	return "", fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, raw)
}

// SortBy returns a stably ordered copy of reviews. The input slice is never
// reordered. Unknown criteria return the copy in input order.
func SortBy(reviews []model.Review, c Criterion) []model.Review {
	out := slices.Clone(reviews)
	if out == nil {
		out = []model.Review{}
	}

	switch c {
	case Newest:
		slices.SortStableFunc(out, func(a, b model.Review) int { return cmp.Compare(b.Timestamp, a.Timestamp) })
	case Oldest:
		slices.SortStableFunc(out, func(a, b model.Review) int { return cmp.Compare(a.Timestamp, b.Timestamp) })
	case Rating:
		slices.SortStableFunc(out, func(a, b model.Review) int { return cmp.Compare(b.Rating, a.Rating) })
	case LowestRating:
		slices.SortStableFunc(out, func(a, b model.Review) int { return cmp.Compare(a.Rating, b.Rating) })
	}
	return out
}
