package models

import "time"

// Order status values. Pending orders transition to exactly one of the two
// terminal states; terminal states never transition again.
const (
	OrderStatusPending  = "pending"
	OrderStatusApproved = "approved"
	OrderStatusRejected = "rejected"
)

// Order records a purchase progressing through pending/approved/rejected.
type Order struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserEmail string `gorm:"type:text;not null;index"` // Purchasing user's email, stored as entered.
	PlanName  string `gorm:"type:text;not null;index"` // Subscription plan being purchased.

	Amount         float64  `gorm:"type:decimal(20,10);not null"` // Final charged amount after discount.
	DiscountAmount *float64 `gorm:"type:decimal(20,10)"`          // Applied discount, if a coupon was used.
	CouponCode     *string  `gorm:"type:text"`                    // Normalized coupon code, if used.

	TransactionID string `gorm:"type:text;not null"` // External payment transaction reference.
	PaymentMethod string `gorm:"type:text;not null"` // Payment channel reported by the user.
	ValidityDays  int    `gorm:"not null"`           // Purchased validity window in days.

	Status    string    `gorm:"type:text;not null;default:'pending';index"` // Lifecycle status.
	OrderDate time.Time `gorm:"not null"`                                   // Time the order was placed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
