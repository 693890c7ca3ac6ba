// Package order tracks purchases through the pending/approved/rejected
// lifecycle. Approval consumes one platform slot in the same transaction
// that flips the status, so a capacity failure leaves the order untouched.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/coupon"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/registry"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

// Service provides order lifecycle operations.
type Service struct {
	db      *gorm.DB
	coupons *coupon.Service
}

// NewService constructs the order lifecycle service.
func NewService(db *gorm.DB, coupons *coupon.Service) *Service {
	return &Service{db: db, coupons: coupons}
}

// CreateParams holds inputs for order creation.
type CreateParams struct {
	UserEmail     string  // Purchasing user's email, stored as entered.
	PlanName      string  // Subscription plan being purchased.
	Amount        float64 // List amount before discount.
	CouponCode    string  // Optional coupon code.
	TransactionID string  // External payment reference.
	PaymentMethod string  // Payment channel.
	ValidityDays  int     // Purchased validity window in days.
}

// Create places an order in pending state. A supplied coupon is validated
// against the plan and its discount subtracted, never below zero. Any
// authenticated caller may place an order; only status transitions are
// admin-gated.
func (s *Service) Create(ctx context.Context, sess *session.Session, params CreateParams) (*models.Order, error) {
	if sess == nil {
		return nil, apperr.Permission("authentication required")
	}

	userEmail := strings.TrimSpace(params.UserEmail)
	if userEmail == "" {
		return nil, apperr.Validation("missing user email")
	}
	planName := strings.TrimSpace(params.PlanName)
	if planName == "" {
		return nil, apperr.Validation("missing plan name")
	}
	if params.Amount < 0 {
		return nil, apperr.Validation("amount cannot be negative")
	}
	if params.ValidityDays <= 0 {
		return nil, apperr.Validation("validity days must be positive")
	}
	if strings.TrimSpace(params.PaymentMethod) == "" {
		return nil, apperr.Validation("missing payment method")
	}

	var plan models.Subscription
	errPlan := s.db.WithContext(ctx).Where("name = ?", planName).First(&plan).Error
	if errPlan != nil {
		if errors.Is(errPlan, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("plan %q not found", planName)
		}
		return nil, apperr.Transport(errPlan, "query plans failed")
	}

	record := models.Order{
		UserEmail:     userEmail,
		PlanName:      planName,
		Amount:        params.Amount,
		TransactionID: strings.TrimSpace(params.TransactionID),
		PaymentMethod: strings.TrimSpace(params.PaymentMethod),
		ValidityDays:  params.ValidityDays,
		Status:        models.OrderStatusPending,
		OrderDate:     time.Now().UTC(),
	}

	if code := strings.TrimSpace(params.CouponCode); code != "" {
		applied, errValidate := s.coupons.Validate(ctx, code, planName)
		if errValidate != nil {
			return nil, errValidate
		}
		discounted := params.Amount - applied.DiscountValue
		if discounted < 0 {
			discounted = 0
		}
		record.Amount = discounted
		record.DiscountAmount = &applied.DiscountValue
		record.CouponCode = &applied.Code
	}

	if errCreate := s.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
		return nil, apperr.Transport(errCreate, "create order failed")
	}
	return &record, nil
}

// Approve moves a pending order to approved and consumes one slot on the
// platform backing the plan. Slot exhaustion fails the approval and keeps
// the order pending.
func (s *Service) Approve(ctx context.Context, sess *session.Session, id uint64) (*models.Order, error) {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return nil, errAuth
	}

	var out models.Order
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, errLoad := loadOrder(tx, id)
		if errLoad != nil {
			return errLoad
		}
		if record.Status != models.OrderStatusPending {
			return apperr.State("order is %s, not pending", record.Status)
		}

		var plan models.Subscription
		errPlan := tx.Where("name = ?", record.PlanName).First(&plan).Error
		if errPlan != nil {
			if errors.Is(errPlan, gorm.ErrRecordNotFound) {
				return apperr.NotFound("plan %q not found", record.PlanName)
			}
			return apperr.Transport(errPlan, "query plans failed")
		}

		if errConsume := registry.ConsumeSlotTx(tx, plan.PlatformID); errConsume != nil {
			return errConsume
		}
		return transition(tx, id, models.OrderStatusApproved, &out)
	})
	if errTx != nil {
		return nil, errTx
	}
	return &out, nil
}

// Reject moves a pending order to rejected. No slot is touched.
func (s *Service) Reject(ctx context.Context, sess *session.Session, id uint64) (*models.Order, error) {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return nil, errAuth
	}

	var out models.Order
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, errLoad := loadOrder(tx, id)
		if errLoad != nil {
			return errLoad
		}
		if record.Status != models.OrderStatusPending {
			return apperr.State("order is %s, not pending", record.Status)
		}
		return transition(tx, id, models.OrderStatusRejected, &out)
	})
	if errTx != nil {
		return nil, errTx
	}
	return &out, nil
}

// Delete removes an order record. Deleting an approved order releases its
// slot; terminal statuses stay final, deletion is the only way back.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id uint64) error {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return errAuth
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, errLoad := loadOrder(tx, id)
		if errLoad != nil {
			return errLoad
		}
		if record.Status == models.OrderStatusApproved {
			var plan models.Subscription
			errPlan := tx.Where("name = ?", record.PlanName).First(&plan).Error
			if errPlan == nil {
				if errRelease := registry.ReleaseSlotTx(tx, plan.PlatformID); errRelease != nil {
					return errRelease
				}
			} else if !errors.Is(errPlan, gorm.ErrRecordNotFound) {
				return apperr.Transport(errPlan, "query plans failed")
			}
		}
		if errDelete := tx.Delete(&models.Order{}, id).Error; errDelete != nil {
			return apperr.Transport(errDelete, "delete order failed")
		}
		return nil
	})
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id uint64) (*models.Order, error) {
	return loadOrder(s.db.WithContext(ctx), id)
}

// ListForUser returns a user's orders, newest first. The email match is an
// exact, case-sensitive comparison.
func (s *Service) ListForUser(ctx context.Context, userEmail string) ([]models.Order, error) {
	var rows []models.Order
	errFind := s.db.WithContext(ctx).
		Where("user_email = ?", userEmail).
		Order("order_date DESC").
		Find(&rows).Error
	if errFind != nil {
		return nil, apperr.Transport(errFind, "list orders failed")
	}
	return rows, nil
}

// List returns all orders, optionally filtered by status, newest first.
func (s *Service) List(ctx context.Context, statusFilter string) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if statusFilter = strings.TrimSpace(statusFilter); statusFilter != "" {
		q = q.Where("status = ?", statusFilter)
	}
	var rows []models.Order
	if errFind := q.Order("order_date DESC").Find(&rows).Error; errFind != nil {
		return nil, apperr.Transport(errFind, "list orders failed")
	}
	return rows, nil
}

// loadOrder fetches an order, mapping gorm errors to apperr kinds.
func loadOrder(tx *gorm.DB, id uint64) (*models.Order, error) {
	var record models.Order
	if errFind := tx.First(&record, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %d not found", id)
		}
		return nil, apperr.Transport(errFind, "query order failed")
	}
	return &record, nil
}

// transition flips a pending order into a terminal status with a guarded
// UPDATE, then reloads the row. Zero affected rows means another request
// won the transition first.
func transition(tx *gorm.DB, id uint64, status string, out *models.Order) error {
	result := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return apperr.Transport(result.Error, "update order failed")
	}
	if result.RowsAffected == 0 {
		return apperr.State("order is no longer pending")
	}
	if errReload := tx.First(out, id).Error; errReload != nil {
		return apperr.Transport(errReload, "reload order failed")
	}
	return nil
}
