package feed

import (
	"strings"

	"chargetracker-backend/internal/parse"
	"chargetracker-backend/internal/store"
)

// ApiResponse models the top-level structure of the upstream feed's response.
type ApiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Page     int          `json:"page"`
		PageSize int          `json:"pageSize"`
		Total    int          `json:"total"`
		Items    []ApiStation `json:"items"`
	} `json:"data"`
}

// ApiStation is one station record of the feed.
type ApiStation struct {
	ID          string `json:"id"`
	StationName string `json:"stationName"`
	Address     string `json:"address"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	OpenNow bool      `json:"openNow"`
	Docks   []ApiDock `json:"docks"`
}

// ApiDock is one connector of an ApiStation.
type ApiDock struct {
	ID          string `json:"id"`
	ChargerType string `json:"chargerType"`
}

func (a ApiStation) toFeedStation() store.FeedStation {
	fs := store.FeedStation{
		ID:        strings.TrimSpace(a.ID),
		Name:      strings.TrimSpace(a.StationName),
		Address:   strings.TrimSpace(a.Address),
		Latitude:  a.Coordinates.Latitude,
		Longitude: a.Coordinates.Longitude,
		OpenNow:   a.OpenNow,
		Docks:     make([]store.FeedDock, 0, len(a.Docks)),
	}
	for _, d := range a.Docks {
		fs.Docks = append(fs.Docks, store.FeedDock{
			ID:          strings.TrimSpace(d.ID),
			ChargerType: parse.ChargerTypeOrUnknown(d.ChargerType),
		})
	}
	return fs
}
