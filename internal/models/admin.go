package models

import "time"

// Admin roles. RoleUser admins keep read access to the console but cannot
// invoke mutating operations.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether the given role is a known role value.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// Admin represents a console account stored in the database.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	Role     string `gorm:"type:text;not null;default:'user'"` // Role gating mutations.

	TOTPSecret string `gorm:"type:text"` // TOTP secret for MFA, empty when disabled.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
