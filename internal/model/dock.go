package model

import "time"

// DockStatus is the occupancy state of a single dock.
type DockStatus string

const (
	DockAvailable DockStatus = "Available"
	DockInUse     DockStatus = "InUse"
)

// ChargerType is the connector standard a dock offers.
type ChargerType string

const (
	ChargerType1   ChargerType = "Type1"
	ChargerType2   ChargerType = "Type2"
	ChargerType3   ChargerType = "Type3"
	ChargerCCS1    ChargerType = "CCS1"
	ChargerCCS2    ChargerType = "CCS2"
	ChargerCHAdeMO ChargerType = "CHAdeMO"
	ChargerNACS    ChargerType = "NACS"
	ChargerUnknown ChargerType = "Unknown"
)

// Dock is one connector point. Its ID is unique only within the owning station.
type Dock struct {
	StationID   string      `gorm:"primaryKey;size:64" json:"stationId"`
	ID          string      `gorm:"primaryKey;size:64" json:"id"`
	Position    int         `gorm:"not null" json:"position"`
	ChargerType ChargerType `gorm:"size:32;not null" json:"chargerType"`
	Status      DockStatus  `gorm:"size:16;not null;index" json:"status"`
	OccupantID  string      `gorm:"size:64;index" json:"-"` // empty while Available
	CheckedInAt *time.Time  `json:"checkedInAt,omitempty"`
	UpdatedAt   time.Time   `gorm:"not null" json:"-"`
}

// CheckInHistory is an archived check-in period, written on check-out.
type CheckInHistory struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	StationID   string    `gorm:"size:64;not null;index:idx_history_dock"`
	DockID      string    `gorm:"size:64;not null;index:idx_history_dock"`
	UserID      string    `gorm:"size:64;not null;index"`
	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null;index"`
}
