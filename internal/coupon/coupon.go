// Package coupon validates and applies discount codes. A code is scoped to
// exactly one subscription plan; asking about the wrong plan is
// indistinguishable from asking about a code that does not exist, so coupon
// existence never leaks across plans.
package coupon

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/cache"
	dbutil "github.com/cookiedeck/cookiedeck/internal/db"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

// cacheKeyPrefix namespaces coupon entries in redis.
const cacheKeyPrefix = "coupon:"

// Service provides coupon operations.
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewService constructs the coupon engine.
func NewService(db *gorm.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

// NormalizeCode trims and uppercases a coupon code. Lookups and storage both
// go through this, which is what makes code uniqueness case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create registers a coupon for a known plan. Coupons are immutable after
// creation; there is no update operation.
func (s *Service) Create(ctx context.Context, sess *session.Session, code string, discountValue float64, subscriptionName string) (*models.Coupon, error) {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return nil, errAuth
	}

	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, apperr.Validation("missing code")
	}
	if len(normalized) > models.CouponCodeMaxLen {
		return nil, apperr.Validation("code longer than %d characters", models.CouponCodeMaxLen)
	}
	if discountValue <= 0 {
		return nil, apperr.Validation("discount value must be positive")
	}
	subscriptionName = strings.TrimSpace(subscriptionName)
	if subscriptionName == "" {
		return nil, apperr.Validation("missing subscription name")
	}

	var plan models.Subscription
	errPlan := s.db.WithContext(ctx).Where("name = ?", subscriptionName).First(&plan).Error
	if errPlan != nil {
		if errors.Is(errPlan, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("unknown plan %q", subscriptionName)
		}
		return nil, apperr.Transport(errPlan, "query plans failed")
	}

	coupon := models.Coupon{
		Code:             normalized,
		DiscountValue:    discountValue,
		SubscriptionName: subscriptionName,
	}
	// The unique index on code is the authority on duplicates; a
	// check-then-insert would let two concurrent creates race past the
	// check.
	if errCreate := s.db.WithContext(ctx).Create(&coupon).Error; errCreate != nil {
		if dbutil.IsDuplicateKeyError(errCreate) {
			return nil, apperr.Conflict("coupon code already exists")
		}
		return nil, apperr.Transport(errCreate, "create coupon failed")
	}
	s.cache.Delete(ctx, cacheKeyPrefix+normalized)
	return &coupon, nil
}

// Validate resolves a code for a specific plan. Both an unknown code and a
// code scoped to a different plan fail with a not-found error.
func (s *Service) Validate(ctx context.Context, code, subscriptionName string) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, apperr.Validation("missing code")
	}
	subscriptionName = strings.TrimSpace(subscriptionName)
	if subscriptionName == "" {
		return nil, apperr.Validation("missing subscription name")
	}

	coupon, errLookup := s.lookup(ctx, normalized)
	if errLookup != nil {
		return nil, errLookup
	}
	if coupon == nil || coupon.SubscriptionName != subscriptionName {
		return nil, apperr.NotFound("coupon not applicable")
	}
	return coupon, nil
}

// lookup reads a coupon through the cache, nil when the code is unknown.
func (s *Service) lookup(ctx context.Context, normalized string) (*models.Coupon, error) {
	var cached models.Coupon
	if s.cache.GetJSON(ctx, cacheKeyPrefix+normalized, &cached) {
		return &cached, nil
	}

	var coupon models.Coupon
	errFind := s.db.WithContext(ctx).Where("code = ?", normalized).First(&coupon).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Transport(errFind, "query coupon failed")
	}
	s.cache.SetJSON(ctx, cacheKeyPrefix+normalized, &coupon)
	return &coupon, nil
}

// Delete removes a coupon by id.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id uint64) error {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return errAuth
	}

	var coupon models.Coupon
	if errFind := s.db.WithContext(ctx).First(&coupon, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return apperr.NotFound("coupon %d not found", id)
		}
		return apperr.Transport(errFind, "query coupon failed")
	}
	if errDelete := s.db.WithContext(ctx).Delete(&models.Coupon{}, id).Error; errDelete != nil {
		return apperr.Transport(errDelete, "delete coupon failed")
	}
	s.cache.Delete(ctx, cacheKeyPrefix+coupon.Code)
	return nil
}

// List returns all coupons, newest first.
func (s *Service) List(ctx context.Context) ([]models.Coupon, error) {
	var rows []models.Coupon
	if errFind := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; errFind != nil {
		return nil, apperr.Transport(errFind, "list coupons failed")
	}
	return rows, nil
}
