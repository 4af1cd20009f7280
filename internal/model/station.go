package model

import "time"

// Station is a charging location. AvailableDocks, AverageRating and ReviewCount
// are denormalized aggregates maintained by the store.
type Station struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Name           string    `gorm:"size:256;not null" json:"name"`
	Address        string    `gorm:"size:512" json:"address"`
	Latitude       float64   `gorm:"not null" json:"latitude"`
	Longitude      float64   `gorm:"not null" json:"longitude"`
	OpenNow        bool      `gorm:"not null" json:"openNow"`
	TotalDocks     int       `gorm:"not null" json:"totalDocks"`
	AvailableDocks int       `gorm:"not null" json:"availableDocks"`
	AverageRating  float64   `gorm:"not null" json:"averageRating"`
	ReviewCount    int64     `gorm:"not null" json:"reviewCount"`
	CreatedAt      time.Time `gorm:"not null" json:"-"`
	UpdatedAt      time.Time `gorm:"not null" json:"-"`

	// Associations
	Docks []Dock `gorm:"foreignKey:StationID;constraint:OnDelete:CASCADE" json:"docks,omitempty"`
}
