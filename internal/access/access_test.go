package access

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/db"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn)
}

func adminSession() *session.Session {
	return &session.Session{UserID: 1, Email: "root@example.com", Role: models.RoleAdmin, IsAdmin: true}
}

func TestAuthorizeRejectsNonAdminRoles(t *testing.T) {
	if err := Authorize(adminSession()); err != nil {
		t.Fatalf("admin session must pass: %v", err)
	}
	cases := []*session.Session{
		nil,
		{UserID: 2, Email: "viewer@example.com", Role: models.RoleUser, IsAdmin: true},
		{UserID: 3, Email: "customer@example.com", Role: models.RoleAdmin, IsAdmin: false},
	}
	for _, sess := range cases {
		err := Authorize(sess)
		if !apperr.IsKind(err, apperr.KindPermission) {
			t.Fatalf("expected permission error for %+v, got %v", sess, err)
		}
	}
}

func TestAddAdminDuplicateEmailKeepsOriginalRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	first, errAdd := svc.AddAdmin(ctx, sess, "a@x.com", models.RoleAdmin, "secret123")
	if errAdd != nil {
		t.Fatalf("add admin: %v", errAdd)
	}

	_, errDup := svc.AddAdmin(ctx, sess, "a@x.com", models.RoleUser, "other")
	if !apperr.IsKind(errDup, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", errDup)
	}

	reloaded, errGet := svc.Get(ctx, first.ID)
	if errGet != nil {
		t.Fatalf("get admin: %v", errGet)
	}
	if reloaded.Role != models.RoleAdmin {
		t.Fatalf("original role changed to %q", reloaded.Role)
	}
}

func TestAddAdminValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	cases := []struct {
		email, role, password string
	}{
		{"", models.RoleAdmin, "secret"},
		{"not-an-email", models.RoleAdmin, "secret"},
		{"b@x.com", "owner", "secret"},
		{"b@x.com", models.RoleAdmin, ""},
	}
	for _, tc := range cases {
		_, err := svc.AddAdmin(ctx, sess, tc.email, tc.role, tc.password)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %+v, got %v", tc, err)
		}
	}
}

func TestSetRoleIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	admin, errAdd := svc.AddAdmin(ctx, sess, "b@x.com", models.RoleUser, "secret123")
	if errAdd != nil {
		t.Fatalf("add admin: %v", errAdd)
	}

	for i := 0; i < 2; i++ {
		updated, errSet := svc.SetRole(ctx, sess, admin.ID, models.RoleAdmin)
		if errSet != nil {
			t.Fatalf("set role round %d: %v", i, errSet)
		}
		if updated.Role != models.RoleAdmin {
			t.Fatalf("round %d: role = %q", i, updated.Role)
		}
	}

	if _, errSet := svc.SetRole(ctx, sess, 9999, models.RoleAdmin); !apperr.IsKind(errSet, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", errSet)
	}
}

func TestRemoveAdminIsUnconditional(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	admin, errAdd := svc.AddAdmin(ctx, sess, "only@x.com", models.RoleAdmin, "secret123")
	if errAdd != nil {
		t.Fatalf("add admin: %v", errAdd)
	}

	// No last-admin guard: deleting the only admin succeeds.
	if errRemove := svc.RemoveAdmin(ctx, sess, admin.ID); errRemove != nil {
		t.Fatalf("remove admin: %v", errRemove)
	}
	if _, errGet := svc.Get(ctx, admin.ID); !apperr.IsKind(errGet, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", errGet)
	}
	if errRemove := svc.RemoveAdmin(ctx, sess, admin.ID); !apperr.IsKind(errRemove, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", errRemove)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, errAdd := svc.AddAdmin(ctx, adminSession(), "login@x.com", models.RoleAdmin, "secret123"); errAdd != nil {
		t.Fatalf("add admin: %v", errAdd)
	}

	admin, errAuth := svc.Authenticate(ctx, "login@x.com", "secret123")
	if errAuth != nil {
		t.Fatalf("authenticate: %v", errAuth)
	}
	if admin.Email != "login@x.com" {
		t.Fatalf("unexpected account: %+v", admin)
	}

	// Bad credentials are unauthenticated (401), not forbidden (403); the
	// two failure shapes stay indistinguishable from each other.
	if _, errAuth := svc.Authenticate(ctx, "login@x.com", "wrong"); !apperr.IsKind(errAuth, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated error for wrong password, got %v", errAuth)
	}
	if _, errAuth := svc.Authenticate(ctx, "ghost@x.com", "secret123"); !apperr.IsKind(errAuth, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated error for unknown email, got %v", errAuth)
	}
}
