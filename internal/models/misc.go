package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// QuickLink is an auxiliary navigation entry shown on the dashboard.
type QuickLink struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title string         `gorm:"type:text;not null"`               // Display title.
	URL   string         `gorm:"type:text;not null"`               // Link target.
	Meta  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Icon/ordering metadata in JSON.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// Category groups subscription plans for display.
type Category struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:text;not null;uniqueIndex"` // Unique category name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// Setting stores a key/value configuration entry in the database.
type Setting struct {
	Key       string          `gorm:"type:varchar(255);primaryKey"` // Configuration key.
	Value     json.RawMessage `gorm:"type:jsonb"`                   // JSON-encoded value.
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime"`      // Last update timestamp.
}
