package models

import "time"

// CouponCodeMaxLen bounds coupon codes after normalization.
const CouponCodeMaxLen = 12

// Coupon is a discount code scoped to exactly one subscription plan.
// Coupons are immutable once created; the only mutation is deletion.
type Coupon struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code             string  `gorm:"type:text;not null;uniqueIndex"` // Normalized uppercase code.
	DiscountValue    float64 `gorm:"type:decimal(20,10);not null"`   // Discount amount, always > 0.
	SubscriptionName string  `gorm:"type:text;not null;index"`       // Plan the coupon applies to.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
