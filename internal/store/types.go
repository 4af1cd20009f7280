package store

import (
	"errors"
	"time"

	"chargetracker-backend/internal/model"
)

var (
	// ErrNotFound is returned when a station does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a compare-and-swap found the row changed.
	ErrConflict = errors.New("state changed concurrently")
)

// FeedStation is one station record from the upstream feed.
type FeedStation struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	OpenNow   bool
	Docks     []FeedDock
}

// FeedDock is one connector of a FeedStation, in feed order.
type FeedDock struct {
	ID          string
	ChargerType model.ChargerType
}

// ActiveCheckIn is a dock currently held by a user.
type ActiveCheckIn struct {
	StationID   string     `json:"stationId"`
	StationName string     `json:"stationName"`
	DockID      string     `json:"dockId"`
	CheckedInAt *time.Time `json:"checkedInAt"`
}
