package models

import "time"

// User represents a customer account for the front dashboard.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email       string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	DisplayName string `gorm:"type:text"`                      // Name shown in the dashboard.
	Password    string `gorm:"type:text;not null"`             // Hashed password.

	Active bool `gorm:"not null;default:true"` // Whether the user can sign in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
