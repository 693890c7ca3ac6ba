package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/models"
)

func TestIsDuplicateKeyErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection refused"), false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_coupons_code" (SQLSTATE 23505)`), true},
		{errors.New("UNIQUE constraint failed: coupons.code"), true},
	}
	for _, tc := range cases {
		if got := IsDuplicateKeyError(tc.err); got != tc.want {
			t.Fatalf("IsDuplicateKeyError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestIsDuplicateKeyErrorOnRealInsert(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	first := models.Platform{Name: "Netflix Pool A", SecretPayload: "blob", TotalSlots: 5}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("first insert: %v", errCreate)
	}
	second := models.Platform{Name: "Netflix Pool A", SecretPayload: "other", TotalSlots: 2}
	errDup := conn.Create(&second).Error
	if errDup == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsDuplicateKeyError(errDup) {
		t.Fatalf("duplicate insert not recognized: %v", errDup)
	}
}
