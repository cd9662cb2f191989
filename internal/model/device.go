package model

import "time"

// Device is a registered purifier and the account it belongs to.
type Device struct {
	DeviceID             string    `gorm:"primaryKey;size:64" json:"device_id"`
	AccountID            int64     `gorm:"index;not null" json:"account_id"`
	Model                string    `gorm:"size:8;not null" json:"model"`
	Location             string    `gorm:"size:128" json:"location"`
	Status               string    `gorm:"size:16;not null" json:"status"`
	SubscriptionDaysLeft *int      `json:"subscription_days_left,omitempty"`
	CreatedAt            time.Time `json:"-"`
	UpdatedAt            time.Time `json:"-"`

	// Associations
	Account Account `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
