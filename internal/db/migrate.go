package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/security"
)

// Migrate creates or updates the schema for all entities.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.Platform{},
		&models.Subscription{},
		&models.Coupon{},
		&models.Order{},
		&models.Admin{},
		&models.User{},
		&models.Notification{},
		&models.QuickLink{},
		&models.Category{},
		&models.Setting{},
	)
}

// SeedAdmin creates the first admin account when no admin row exists yet.
// Re-running with an already-populated admins table is a no-op, so the seed
// can stay in the config permanently.
func SeedAdmin(ctx context.Context, conn *gorm.DB, email, password string) error {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil
	}

	var existing models.Admin
	errFind := conn.WithContext(ctx).Select("id").First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query admins: %w", errFind)
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("db: hash seed password: %w", errHash)
	}
	admin := models.Admin{
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	}
	if errCreate := conn.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("db: seed admin: %w", errCreate)
	}
	log.WithField("email", email).Info("seeded initial admin account")
	return nil
}
