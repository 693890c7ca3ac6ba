package models

import "time"

// Notification is one append-only broadcast message. Rows are never updated;
// the newest row is what dashboards surface as the "last notification".
type Notification struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Message string `gorm:"type:text;not null"` // Broadcast text, non-empty.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Server-assigned publish time.
}
