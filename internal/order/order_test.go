package order

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/cache"
	"github.com/cookiedeck/cookiedeck/internal/coupon"
	"github.com/cookiedeck/cookiedeck/internal/db"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

type fixture struct {
	svc      *Service
	conn     *gorm.DB
	platform *models.Platform
}

func newFixture(t *testing.T, totalSlots int) *fixture {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	platform := models.Platform{Name: "Netflix Pool A", SecretPayload: "blob", TotalSlots: totalSlots}
	if errCreate := conn.Create(&platform).Error; errCreate != nil {
		t.Fatalf("seed platform: %v", errCreate)
	}
	plan := models.Subscription{Name: "Premium Monthly", PlatformID: platform.ID, Price: 100, ValidityDays: 30}
	if errCreate := conn.Create(&plan).Error; errCreate != nil {
		t.Fatalf("seed plan: %v", errCreate)
	}
	basic := models.Subscription{Name: "Basic Yearly", PlatformID: platform.ID, Price: 50, ValidityDays: 365}
	if errCreate := conn.Create(&basic).Error; errCreate != nil {
		t.Fatalf("seed plan: %v", errCreate)
	}

	coupons := coupon.NewService(conn, cache.New("", "", 0))
	return &fixture{svc: NewService(conn, coupons), conn: conn, platform: &platform}
}

func (f *fixture) seedCoupon(t *testing.T, code string, value float64, plan string) {
	t.Helper()
	record := models.Coupon{Code: code, DiscountValue: value, SubscriptionName: plan}
	if errCreate := f.conn.Create(&record).Error; errCreate != nil {
		t.Fatalf("seed coupon: %v", errCreate)
	}
}

func adminSession() *session.Session {
	return &session.Session{UserID: 1, Email: "root@example.com", Role: models.RoleAdmin, IsAdmin: true}
}

func userSession(email string) *session.Session {
	return &session.Session{UserID: 7, Email: email, Role: models.RoleUser}
}

func baseParams() CreateParams {
	return CreateParams{
		UserEmail:     "buyer@example.com",
		PlanName:      "Premium Monthly",
		Amount:        100,
		TransactionID: "TX-1001",
		PaymentMethod: "bkash",
		ValidityDays:  30,
	}
}

func TestCreateAppliesCouponDiscount(t *testing.T) {
	f := newFixture(t, 5)
	f.seedCoupon(t, "SAVE10", 10, "Premium Monthly")
	ctx := context.Background()

	params := baseParams()
	params.CouponCode = "save10"
	record, errCreate := f.svc.Create(ctx, userSession(params.UserEmail), params)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if record.Amount != 90 {
		t.Fatalf("amount = %v, want 90", record.Amount)
	}
	if record.DiscountAmount == nil || *record.DiscountAmount != 10 {
		t.Fatalf("discount amount = %v, want 10", record.DiscountAmount)
	}
	if record.CouponCode == nil || *record.CouponCode != "SAVE10" {
		t.Fatalf("coupon code = %v, want SAVE10", record.CouponCode)
	}
	if record.Status != models.OrderStatusPending {
		t.Fatalf("status = %q, want pending", record.Status)
	}
}

func TestCreateDiscountNeverBelowZero(t *testing.T) {
	f := newFixture(t, 5)
	f.seedCoupon(t, "MEGA", 500, "Premium Monthly")
	ctx := context.Background()

	params := baseParams()
	params.CouponCode = "MEGA"
	record, errCreate := f.svc.Create(ctx, userSession(params.UserEmail), params)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if record.Amount != 0 {
		t.Fatalf("amount = %v, want 0", record.Amount)
	}
}

func TestCreateRejectsCouponForOtherPlan(t *testing.T) {
	f := newFixture(t, 5)
	f.seedCoupon(t, "SAVE10", 10, "Basic Yearly")
	ctx := context.Background()

	params := baseParams()
	params.CouponCode = "SAVE10"
	if _, errCreate := f.svc.Create(ctx, userSession(params.UserEmail), params); !apperr.IsKind(errCreate, apperr.KindNotFound) {
		t.Fatalf("expected not found for cross-plan coupon, got %v", errCreate)
	}
}

func TestCreateUnknownPlan(t *testing.T) {
	f := newFixture(t, 5)
	params := baseParams()
	params.PlanName = "Ghost Plan"
	if _, errCreate := f.svc.Create(context.Background(), userSession(params.UserEmail), params); !apperr.IsKind(errCreate, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown plan, got %v", errCreate)
	}
}

func TestApproveConsumesSlot(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	record, errCreate := f.svc.Create(ctx, userSession("buyer@example.com"), baseParams())
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	approved, errApprove := f.svc.Approve(ctx, adminSession(), record.ID)
	if errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}
	if approved.Status != models.OrderStatusApproved {
		t.Fatalf("status = %q, want approved", approved.Status)
	}

	var platform models.Platform
	if errFind := f.conn.First(&platform, f.platform.ID).Error; errFind != nil {
		t.Fatalf("reload platform: %v", errFind)
	}
	if platform.UsedSlots != 1 {
		t.Fatalf("used slots = %d, want 1", platform.UsedSlots)
	}
}

func TestApproveAtCapacityKeepsOrderPending(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	sess := adminSession()

	first, errCreate := f.svc.Create(ctx, userSession("a@example.com"), baseParams())
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	second, errCreate := f.svc.Create(ctx, userSession("b@example.com"), baseParams())
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	if _, errApprove := f.svc.Approve(ctx, sess, first.ID); errApprove != nil {
		t.Fatalf("first approve: %v", errApprove)
	}
	if _, errApprove := f.svc.Approve(ctx, sess, second.ID); !apperr.IsKind(errApprove, apperr.KindCapacity) {
		t.Fatalf("expected capacity error, got %v", errApprove)
	}

	reloaded, errGet := f.svc.Get(ctx, second.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if reloaded.Status != models.OrderStatusPending {
		t.Fatalf("failed approval changed status to %q", reloaded.Status)
	}
	var platform models.Platform
	if errFind := f.conn.First(&platform, f.platform.ID).Error; errFind != nil {
		t.Fatalf("reload platform: %v", errFind)
	}
	if platform.UsedSlots != 1 {
		t.Fatalf("used slots = %d, want 1", platform.UsedSlots)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	sess := adminSession()

	record, errCreate := f.svc.Create(ctx, userSession("buyer@example.com"), baseParams())
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errReject := f.svc.Reject(ctx, sess, record.ID); errReject != nil {
		t.Fatalf("reject: %v", errReject)
	}

	if _, errApprove := f.svc.Approve(ctx, sess, record.ID); !apperr.IsKind(errApprove, apperr.KindState) {
		t.Fatalf("expected state error approving rejected order, got %v", errApprove)
	}
	if _, errReject := f.svc.Reject(ctx, sess, record.ID); !apperr.IsKind(errReject, apperr.KindState) {
		t.Fatalf("expected state error rejecting twice, got %v", errReject)
	}

	var platform models.Platform
	if errFind := f.conn.First(&platform, f.platform.ID).Error; errFind != nil {
		t.Fatalf("reload platform: %v", errFind)
	}
	if platform.UsedSlots != 0 {
		t.Fatalf("reject must not consume slots, used = %d", platform.UsedSlots)
	}
}

func TestTransitionsRequireAdminRole(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	record, errCreate := f.svc.Create(ctx, userSession("buyer@example.com"), baseParams())
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errApprove := f.svc.Approve(ctx, userSession("buyer@example.com"), record.ID); !apperr.IsKind(errApprove, apperr.KindPermission) {
		t.Fatalf("expected permission error, got %v", errApprove)
	}
}

func TestDeleteApprovedOrderReleasesSlot(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	sess := adminSession()

	record, errCreate := f.svc.Create(ctx, userSession("buyer@example.com"), baseParams())
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errApprove := f.svc.Approve(ctx, sess, record.ID); errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}
	if errDelete := f.svc.Delete(ctx, sess, record.ID); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}

	var platform models.Platform
	if errFind := f.conn.First(&platform, f.platform.ID).Error; errFind != nil {
		t.Fatalf("reload platform: %v", errFind)
	}
	if platform.UsedSlots != 0 {
		t.Fatalf("slot not released, used = %d", platform.UsedSlots)
	}
	if _, errGet := f.svc.Get(ctx, record.ID); !apperr.IsKind(errGet, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", errGet)
	}
}

func TestListForUserIsExactMatch(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	params := baseParams()
	params.UserEmail = "Buyer@Example.com"
	if _, errCreate := f.svc.Create(ctx, userSession(params.UserEmail), params); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	exact, errList := f.svc.ListForUser(ctx, "Buyer@Example.com")
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(exact) != 1 {
		t.Fatalf("expected 1 order for exact email, got %d", len(exact))
	}

	// Email matching is deliberately case-sensitive.
	other, errList := f.svc.ListForUser(ctx, "buyer@example.com")
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(other) != 0 {
		t.Fatalf("expected 0 orders for different casing, got %d", len(other))
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	sess := adminSession()

	first, _ := f.svc.Create(ctx, userSession("a@example.com"), baseParams())
	if _, errCreate := f.svc.Create(ctx, userSession("b@example.com"), baseParams()); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errApprove := f.svc.Approve(ctx, sess, first.ID); errApprove != nil {
		t.Fatalf("approve: %v", errApprove)
	}

	pending, errList := f.svc.List(ctx, models.OrderStatusPending)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending order, got %d", len(pending))
	}
	all, errList := f.svc.List(ctx, "")
	if errList != nil {
		t.Fatalf("list all: %v", errList)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
}
