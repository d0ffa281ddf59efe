package domain

import "time"

// DeviceToken is an FCM registration token for operator alerting
// (stuck queue rows, sync failures)
type DeviceToken struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
