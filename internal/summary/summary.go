// Package summary builds the read-only station view shown to clients.
package summary

import (
	"chargetracker-backend/internal/dock"
	"chargetracker-backend/internal/model"
	"chargetracker-backend/internal/rating"
)

// Summary is the display projection of a station.
type Summary struct {
	StationID      string  `json:"stationId"`
	Name           string  `json:"name"`
	Rating         float64 `json:"rating"`
	ReviewCount    int64   `json:"reviewCount"`
	AvailableDocks int     `json:"availableDocks"`
	TotalDocks     int     `json:"totalDocks"`
	IsAvailable    bool    `json:"isAvailable"`
}

// Summarize combines a station, its docks and its reviews. Non-empty reviews
// are authoritative for rating and count; otherwise the station's stored
// aggregate is shown.
func Summarize(station model.Station, docks []model.Dock, reviews []model.Review) Summary {
	s := Summary{
		StationID:  station.ID,
		Name:       station.Name,
		TotalDocks: max(station.TotalDocks, len(docks)),
	}

	for _, d := range docks {
		if d.Status == model.DockAvailable {
			s.AvailableDocks++
		}
	}
	s.IsAvailable = dock.IsAvailable(s.AvailableDocks, s.TotalDocks)

	if len(reviews) > 0 {
		ratings := make([]float64, len(reviews))
		for i, r := range reviews {
			ratings[i] = float64(r.Rating)
		}
		s.Rating = rating.AverageOf(ratings)
		s.ReviewCount = int64(len(reviews))
	} else {
		s.Rating = rating.Display(station.AverageRating)
		s.ReviewCount = station.ReviewCount
	}
	return s
}

// FromStation summarizes a station using its denormalized counters only,
// for listings where docks and reviews are not loaded.
func FromStation(station model.Station) Summary {
	if len(station.Docks) > 0 {
		return Summarize(station, station.Docks, nil)
	}
	s := Summary{
		StationID:      station.ID,
		Name:           station.Name,
		Rating:         rating.Display(station.AverageRating),
		ReviewCount:    station.ReviewCount,
		AvailableDocks: station.AvailableDocks,
		TotalDocks:     station.TotalDocks,
	}
	s.IsAvailable = dock.IsAvailable(s.AvailableDocks, s.TotalDocks)
	return s
}
