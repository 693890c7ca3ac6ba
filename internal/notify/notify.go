// Package notify keeps the append-only broadcast log. Dashboards only ever
// surface the most recent message, so that one row is cached.
package notify

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/cache"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

// latestCacheKey caches the most recently published message.
const latestCacheKey = "notification:latest"

// Service provides notification log operations.
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewService constructs the notification log.
func NewService(db *gorm.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

// Publish appends a broadcast message with a server-assigned timestamp.
func (s *Service) Publish(ctx context.Context, sess *session.Session, message string) (*models.Notification, error) {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return nil, errAuth
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.Validation("missing message")
	}

	record := models.Notification{Message: message}
	if errCreate := s.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
		return nil, apperr.Transport(errCreate, "publish notification failed")
	}
	s.cache.SetJSON(ctx, latestCacheKey, &record)
	return &record, nil
}

// Latest returns the most recently published message, or nil when the log
// is empty.
func (s *Service) Latest(ctx context.Context) (*models.Notification, error) {
	var cached models.Notification
	if s.cache.GetJSON(ctx, latestCacheKey, &cached) {
		return &cached, nil
	}

	var record models.Notification
	errFind := s.db.WithContext(ctx).Order("id DESC").First(&record).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Transport(errFind, "query notifications failed")
	}
	s.cache.SetJSON(ctx, latestCacheKey, &record)
	return &record, nil
}

// List returns the full log, newest first.
func (s *Service) List(ctx context.Context) ([]models.Notification, error) {
	var rows []models.Notification
	if errFind := s.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; errFind != nil {
		return nil, apperr.Transport(errFind, "list notifications failed")
	}
	return rows, nil
}
