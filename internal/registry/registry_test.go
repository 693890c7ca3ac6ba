package registry

import (
	"context"
	"sync"
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
	// A single connection keeps every goroutine on the same in-memory
	// database and lets SQLite serialize concurrent writers.
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn)
}

func adminSession() *session.Session {
	return &session.Session{UserID: 1, Email: "root@example.com", Role: models.RoleAdmin, IsAdmin: true}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	cases := []struct {
		name, payload string
		slots         int
	}{
		{"", "cookie-blob", 5},
		{"Netflix Pool A", "", 5},
		{"Netflix Pool A", "cookie-blob", 0},
		{"Netflix Pool A", "cookie-blob", -3},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, sess, tc.name, tc.payload, tc.slots)
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %+v, got %v", tc, err)
		}
	}

	platform, errCreate := svc.Create(ctx, sess, "Netflix Pool A", "cookie-blob", 5)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if platform.UsedSlots != 0 || platform.TotalSlots != 5 {
		t.Fatalf("unexpected slots on new platform: %+v", platform)
	}

	if _, errDup := svc.Create(ctx, sess, "Netflix Pool A", "other", 2); !apperr.IsKind(errDup, apperr.KindConflict) {
		t.Fatalf("expected conflict on duplicate name, got %v", errDup)
	}
}

func TestCreateRequiresAdminRole(t *testing.T) {
	svc := newTestService(t)
	viewer := &session.Session{UserID: 2, Email: "viewer@example.com", Role: models.RoleUser, IsAdmin: true}

	_, err := svc.Create(context.Background(), viewer, "Spotify Pool", "blob", 3)
	if !apperr.IsKind(err, apperr.KindPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestUpdateRejectsShrinkBelowUsedSlots(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	platform, errCreate := svc.Create(ctx, sess, "Disney Pool", "blob", 4)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	for i := 0; i < 3; i++ {
		if _, errConsume := svc.ConsumeSlot(ctx, platform.ID); errConsume != nil {
			t.Fatalf("consume %d: %v", i, errConsume)
		}
	}

	two := 2
	if _, errUpdate := svc.Update(ctx, sess, platform.ID, Patch{TotalSlots: &two}); !apperr.IsKind(errUpdate, apperr.KindValidation) {
		t.Fatalf("expected validation error shrinking below used slots, got %v", errUpdate)
	}

	three := 3
	updated, errUpdate := svc.Update(ctx, sess, platform.ID, Patch{TotalSlots: &three})
	if errUpdate != nil {
		t.Fatalf("shrink to used slots must succeed: %v", errUpdate)
	}
	if updated.TotalSlots != 3 || updated.UsedSlots != 3 {
		t.Fatalf("unexpected platform after shrink: %+v", updated)
	}

	if _, errUpdate := svc.Update(ctx, sess, 9999, Patch{TotalSlots: &three}); !apperr.IsKind(errUpdate, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", errUpdate)
	}
}

func TestDeleteConflictsWhileSlotsConsumed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	platform, errCreate := svc.Create(ctx, sess, "HBO Pool", "blob", 2)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errConsume := svc.ConsumeSlot(ctx, platform.ID); errConsume != nil {
		t.Fatalf("consume: %v", errConsume)
	}

	if errDelete := svc.Delete(ctx, sess, platform.ID); !apperr.IsKind(errDelete, apperr.KindConflict) {
		t.Fatalf("expected conflict deleting platform with consumed slots, got %v", errDelete)
	}

	if _, errRelease := svc.ReleaseSlot(ctx, platform.ID); errRelease != nil {
		t.Fatalf("release: %v", errRelease)
	}
	if errDelete := svc.Delete(ctx, sess, platform.ID); errDelete != nil {
		t.Fatalf("delete with zero used slots: %v", errDelete)
	}
	if _, errGet := svc.Get(ctx, platform.ID); !apperr.IsKind(errGet, apperr.KindNotFound) {
		t.Fatalf("deleted platform still retrievable: %v", errGet)
	}
}

func TestConsumeSlotAtCapacity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	platform, errCreate := svc.Create(ctx, adminSession(), "Prime Pool", "blob", 1)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	if _, errConsume := svc.ConsumeSlot(ctx, platform.ID); errConsume != nil {
		t.Fatalf("first consume: %v", errConsume)
	}
	if _, errConsume := svc.ConsumeSlot(ctx, platform.ID); !apperr.IsKind(errConsume, apperr.KindCapacity) {
		t.Fatalf("expected capacity error, got %v", errConsume)
	}

	reloaded, errGet := svc.Get(ctx, platform.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if reloaded.UsedSlots != 1 || reloaded.TotalSlots != 1 {
		t.Fatalf("failed consume mutated state: %+v", reloaded)
	}
}

func TestReleaseSlotBelowZero(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	platform, errCreate := svc.Create(ctx, adminSession(), "Hulu Pool", "blob", 2)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, errRelease := svc.ReleaseSlot(ctx, platform.ID); !apperr.IsKind(errRelease, apperr.KindState) {
		t.Fatalf("expected state error releasing at zero, got %v", errRelease)
	}
}

func TestShrinkRacingConsumeKeepsSlotInvariant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sess := adminSession()

	const totalSlots = 5

	platform, errCreate := svc.Create(ctx, sess, "Peacock Pool", "blob", totalSlots)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	var wg sync.WaitGroup
	for i := 0; i < totalSlots; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, errConsume := svc.ConsumeSlot(ctx, platform.ID); errConsume != nil && !apperr.IsKind(errConsume, apperr.KindCapacity) {
				t.Errorf("unexpected consume error: %v", errConsume)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		one := 1
		_, errShrink := svc.Update(ctx, sess, platform.ID, Patch{TotalSlots: &one})
		if errShrink != nil && !apperr.IsKind(errShrink, apperr.KindValidation) && !apperr.IsKind(errShrink, apperr.KindConflict) {
			t.Errorf("unexpected shrink error: %v", errShrink)
		}
	}()
	wg.Wait()

	reloaded, errGet := svc.Get(ctx, platform.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if reloaded.UsedSlots < 0 || reloaded.UsedSlots > reloaded.TotalSlots {
		t.Fatalf("slot invariant broken: used=%d total=%d", reloaded.UsedSlots, reloaded.TotalSlots)
	}
}

func TestConcurrentConsumeNeverOversells(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const totalSlots = 3
	const contenders = 8

	platform, errCreate := svc.Create(ctx, adminSession(), "YouTube Pool", "blob", totalSlots)
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errConsume := svc.ConsumeSlot(ctx, platform.ID)
			results <- errConsume
		}()
	}
	wg.Wait()
	close(results)

	wins, capacityFailures := 0, 0
	for errConsume := range results {
		switch {
		case errConsume == nil:
			wins++
		case apperr.IsKind(errConsume, apperr.KindCapacity):
			capacityFailures++
		default:
			t.Fatalf("unexpected error: %v", errConsume)
		}
	}
	if wins != totalSlots {
		t.Fatalf("expected %d winners, got %d", totalSlots, wins)
	}
	if capacityFailures != contenders-totalSlots {
		t.Fatalf("expected %d capacity failures, got %d", contenders-totalSlots, capacityFailures)
	}

	reloaded, errGet := svc.Get(ctx, platform.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if reloaded.UsedSlots != totalSlots {
		t.Fatalf("used slots = %d, want %d", reloaded.UsedSlots, totalSlots)
	}
}
