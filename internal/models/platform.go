package models

import "time"

// Platform represents a shared-account pool sold in limited login slots.
type Platform struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name          string `gorm:"type:text;not null;uniqueIndex"` // Unique platform name.
	SecretPayload string `gorm:"type:text;not null"`             // Opaque credential blob (cookies, tokens).

	TotalSlots int `gorm:"not null"`           // Sellable login slots, always > 0.
	UsedSlots  int `gorm:"not null;default:0"` // Consumed slots, 0..TotalSlots.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// FreeSlots returns the remaining sellable capacity.
func (p *Platform) FreeSlots() int {
	return p.TotalSlots - p.UsedSlots
}
