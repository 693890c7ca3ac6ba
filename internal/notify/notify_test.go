package notify

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/cache"
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
	return NewService(conn, cache.New("", "", 0))
}

func adminSession() *session.Session {
	return &session.Session{UserID: 1, Email: "root@example.com", Role: models.RoleAdmin, IsAdmin: true}
}

func TestPublishRejectsEmptyMessage(t *testing.T) {
	svc := newTestService(t)
	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := svc.Publish(context.Background(), adminSession(), message)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %q, got %v", message, err)
		}
	}
}

func TestLatestEmptyLog(t *testing.T) {
	svc := newTestService(t)
	latest, errLatest := svc.Latest(context.Background())
	if errLatest != nil {
		t.Fatalf("latest: %v", errLatest)
	}
	if latest != nil {
		t.Fatalf("expected nil for empty log, got %+v", latest)
	}
}

func TestLatestReturnsNewestMessage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	for _, message := range []string{"maintenance tonight", "new plans available", "discounts extended"} {
		if _, errPublish := svc.Publish(ctx, sess, message); errPublish != nil {
			t.Fatalf("publish %q: %v", message, errPublish)
		}
	}

	latest, errLatest := svc.Latest(ctx)
	if errLatest != nil {
		t.Fatalf("latest: %v", errLatest)
	}
	if latest == nil || latest.Message != "discounts extended" {
		t.Fatalf("latest = %+v, want newest message", latest)
	}

	rows, errList := svc.List(ctx)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(rows))
	}
	if rows[0].Message != "discounts extended" {
		t.Fatalf("list not newest-first: %q", rows[0].Message)
	}
}

func TestPublishRequiresAdminRole(t *testing.T) {
	svc := newTestService(t)
	viewer := &session.Session{UserID: 2, Email: "viewer@example.com", Role: models.RoleUser, IsAdmin: true}
	if _, err := svc.Publish(context.Background(), viewer, "hello"); !apperr.IsKind(err, apperr.KindPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}
