package model

// WaitTimeBucket is the author's estimate of how long they waited for a free dock.
type WaitTimeBucket string

const (
	WaitNone   WaitTimeBucket = "none"
	WaitUpTo10 WaitTimeBucket = "up_to_10"
	Wait10To20 WaitTimeBucket = "10_to_20"
	WaitOver20 WaitTimeBucket = "over_20"
)

// ChargeOutcome records whether the author managed to charge.
type ChargeOutcome string

const (
	ChargeSucceeded ChargeOutcome = "success"
	ChargeFailed    ChargeOutcome = "failure"
)

// Review is immutable once created. Timestamp is epoch milliseconds.
type Review struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	StationID       string         `gorm:"size:64;not null;index" json:"stationId"`
	AuthorID        string         `gorm:"size:64;not null;index" json:"authorId"`
	Rating          int            `gorm:"not null" json:"rating"`
	Comment         string         `gorm:"type:text" json:"comment,omitempty"`
	ChargerTypeUsed ChargerType    `gorm:"size:32" json:"chargerTypeUsed,omitempty"`
	WaitTime        WaitTimeBucket `gorm:"size:16" json:"waitTime,omitempty"`
	ChargeOutcome   ChargeOutcome  `gorm:"size:16" json:"chargeOutcome,omitempty"`
	Timestamp       int64          `gorm:"not null;index" json:"timestamp"`
}
