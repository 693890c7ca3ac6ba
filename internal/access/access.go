// Package access manages console accounts and is the single authorization
// choke point: every mutating domain operation calls Authorize before
// touching state, instead of screens checking role strings themselves.
package access

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/apperr"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/security"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

// Authorize grants mutation rights to admin-role console sessions only.
func Authorize(sess *session.Session) error {
	if sess == nil || !sess.IsAdmin {
		return apperr.Permission("admin session required")
	}
	if sess.Role != models.RoleAdmin {
		return apperr.Permission("admin role required")
	}
	return nil
}

// Service provides admin-account CRUD.
type Service struct {
	db *gorm.DB
}

// NewService constructs the admin access control service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AddAdmin creates a console account with the given role.
func (s *Service) AddAdmin(ctx context.Context, sess *session.Session, email, role, password string) (*models.Admin, error) {
	if errAuth := Authorize(sess); errAuth != nil {
		return nil, errAuth
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("missing email")
	}
	if _, errParse := mail.ParseAddress(email); errParse != nil {
		return nil, apperr.Validation("malformed email")
	}
	if !models.ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return nil, apperr.Validation("missing password")
	}

	var existing models.Admin
	errCheck := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if errCheck == nil {
		return nil, apperr.Conflict("email already exists")
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		return nil, apperr.Transport(errCheck, "query admins failed")
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return nil, apperr.Transport(errHash, "hash password failed")
	}

	admin := models.Admin{
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if errCreate := s.db.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		return nil, apperr.Transport(errCreate, "create admin failed")
	}
	return &admin, nil
}

// SetRole assigns a role to an account. Assigning the role it already has
// succeeds without effect.
func (s *Service) SetRole(ctx context.Context, sess *session.Session, id uint64, role string) (*models.Admin, error) {
	if errAuth := Authorize(sess); errAuth != nil {
		return nil, errAuth
	}
	if !models.ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}

	var admin models.Admin
	if errFind := s.db.WithContext(ctx).First(&admin, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("admin %d not found", id)
		}
		return nil, apperr.Transport(errFind, "query admin failed")
	}
	if admin.Role == role {
		return &admin, nil
	}
	if errUpdate := s.db.WithContext(ctx).Model(&admin).Update("role", role).Error; errUpdate != nil {
		return nil, apperr.Transport(errUpdate, "update role failed")
	}
	admin.Role = role
	return &admin, nil
}

// RemoveAdmin deletes an account unconditionally. Removing the last
// admin-role account is allowed; recovering from that requires the seed
// config, which is why the gap is documented rather than papered over.
func (s *Service) RemoveAdmin(ctx context.Context, sess *session.Session, id uint64) error {
	if errAuth := Authorize(sess); errAuth != nil {
		return errAuth
	}
	result := s.db.WithContext(ctx).Delete(&models.Admin{}, id)
	if result.Error != nil {
		return apperr.Transport(result.Error, "delete admin failed")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("admin %d not found", id)
	}
	return nil
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, id uint64) (*models.Admin, error) {
	var admin models.Admin
	if errFind := s.db.WithContext(ctx).First(&admin, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("admin %d not found", id)
		}
		return nil, apperr.Transport(errFind, "query admin failed")
	}
	return &admin, nil
}

// List returns all console accounts, newest first.
func (s *Service) List(ctx context.Context) ([]models.Admin, error) {
	var rows []models.Admin
	if errFind := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; errFind != nil {
		return nil, apperr.Transport(errFind, "list admins failed")
	}
	return rows, nil
}

// Authenticate verifies console credentials and returns the account.
// Unknown email and wrong password are indistinguishable to the caller, and
// both surface as unauthenticated rather than forbidden.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.Validation("missing email or password")
	}
	var admin models.Admin
	if errFind := s.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, apperr.Transport(errFind, "query admin failed")
	}
	if !security.CheckPassword(admin.Password, password) {
		return nil, apperr.Unauthenticated("invalid credentials")
	}
	return &admin, nil
}

// SessionFor builds the session value for an authenticated console account.
func SessionFor(admin *models.Admin) *session.Session {
	return &session.Session{
		UserID:  admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
		IsAdmin: true,
	}
}
