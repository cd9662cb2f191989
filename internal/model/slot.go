package model

import (
	"time"

	"gorm.io/datatypes"
)

// Slot is a durable key-value entry holding a JSON document.
type Slot struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}
