package model

import "time"

// Account is a dashboard login. Renters rent devices, owners supply them.
type Account struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;index"`
	DisplayName  string    `gorm:"size:128"`
	Email        string    `gorm:"size:256"`
	Phone        string    `gorm:"size:32"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	// Associations
	Devices []Device `gorm:"foreignKey:AccountID"`
}

// Account roles.
const (
	RoleRenter = "renter"
	RoleOwner  = "owner"
)
