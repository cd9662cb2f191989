package model

import "time"

// ReadingLatest holds the current reading of a device (hot table).
type ReadingLatest struct {
	DeviceID             string    `gorm:"primaryKey;size:64"`
	ObservedAt           time.Time `gorm:"not null"`
	PH                   float64   `gorm:"column:ph;not null"`
	TDS                  int       `gorm:"column:tds;not null"`
	Temperature          float64   `gorm:"not null"`
	FilterHealth         float64   `gorm:"not null"`
	Flow                 float64   `gorm:"not null"`
	FilterType           string    `gorm:"size:8;not null"`
	Status               string    `gorm:"size:16;not null"`
	SubscriptionDaysLeft *int
}

// ReadingHistory is the append-only log of accepted readings (cold table).
// One row per device and observation time.
type ReadingHistory struct {
	DeviceID     string    `gorm:"size:64;not null;primaryKey"`
	ObservedAt   time.Time `gorm:"not null;index;primaryKey"`
	PH           float64   `gorm:"column:ph;not null"`
	TDS          int       `gorm:"column:tds;not null"`
	Temperature  float64   `gorm:"not null"`
	FilterHealth float64   `gorm:"not null"`
	Flow         float64   `gorm:"not null"`
	Status       string    `gorm:"size:16;not null"`
}
