package models

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription is a sellable plan backed by a platform's slot pool.
type Subscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:text;not null;uniqueIndex"` // Unique plan name, e.g. "Premium Monthly".

	PlatformID uint64    `gorm:"not null;index"`        // Platform whose slots back this plan.
	Platform   *Platform `gorm:"foreignKey:PlatformID"` // Backing platform record.

	Price        float64        `gorm:"type:decimal(20,10);not null"`     // List price.
	ValidityDays int            `gorm:"not null"`                         // Subscription length in days.
	Features     datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Display feature list in JSON.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
