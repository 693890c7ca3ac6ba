// Package registry owns the platform slot inventory. Slot counters are only
// mutated through guarded UPDATE statements inside transactions so that
// concurrent approvals racing on the last slot produce exactly one winner.
package registry

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/apperr"
	dbutil "github.com/cookiedeck/cookiedeck/internal/db"
	"github.com/cookiedeck/cookiedeck/internal/models"
	"github.com/cookiedeck/cookiedeck/internal/session"
)

// Service provides platform inventory operations.
type Service struct {
	db *gorm.DB
}

// NewService constructs the platform registry.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create registers a new platform with all slots free.
func (s *Service) Create(ctx context.Context, sess *session.Session, name, secretPayload string, totalSlots int) (*models.Platform, error) {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return nil, errAuth
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("missing name")
	}
	if strings.TrimSpace(secretPayload) == "" {
		return nil, apperr.Validation("missing secret payload")
	}
	if totalSlots <= 0 {
		return nil, apperr.Validation("total slots must be positive")
	}

	var existing models.Platform
	errCheck := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if errCheck == nil {
		return nil, apperr.Conflict("platform name already exists")
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		return nil, apperr.Transport(errCheck, "query platforms failed")
	}

	platform := models.Platform{
		Name:          name,
		SecretPayload: secretPayload,
		TotalSlots:    totalSlots,
		UsedSlots:     0,
	}
	if errCreate := s.db.WithContext(ctx).Create(&platform).Error; errCreate != nil {
		return nil, apperr.Transport(errCreate, "create platform failed")
	}
	return &platform, nil
}

// Patch describes a partial platform update. Nil fields are untouched.
type Patch struct {
	Name          *string
	SecretPayload *string
	TotalSlots    *int
}

// Update applies a patch and returns the stored entity, so callers never
// have to guess whether their cache is coherent.
func (s *Service) Update(ctx context.Context, sess *session.Session, id uint64, patch Patch) (*models.Platform, error) {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return nil, errAuth
	}

	var out models.Platform
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row so a concurrent slot consume cannot slip between
		// the used-slots check and the write.
		var platform models.Platform
		if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&platform, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return apperr.NotFound("platform %d not found", id)
			}
			return apperr.Transport(errFind, "query platform failed")
		}

		updates := map[string]any{}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return apperr.Validation("missing name")
			}
			if name != platform.Name {
				var clash models.Platform
				errCheck := tx.Where("name = ? AND id <> ?", name, id).First(&clash).Error
				if errCheck == nil {
					return apperr.Conflict("platform name already exists")
				}
				if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
					return apperr.Transport(errCheck, "query platforms failed")
				}
				updates["name"] = name
			}
		}
		if patch.SecretPayload != nil {
			if strings.TrimSpace(*patch.SecretPayload) == "" {
				return apperr.Validation("missing secret payload")
			}
			updates["secret_payload"] = *patch.SecretPayload
		}
		if patch.TotalSlots != nil {
			total := *patch.TotalSlots
			if total <= 0 {
				return apperr.Validation("total slots must be positive")
			}
			if total < platform.UsedSlots {
				return apperr.Validation("total slots cannot drop below %d used slots", platform.UsedSlots)
			}
			updates["total_slots"] = total
		}

		if len(updates) > 0 {
			q := tx.Model(&models.Platform{}).Where("id = ?", id)
			if newTotal, shrinking := updates["total_slots"]; shrinking {
				// used_slots <= total_slots must hold at all times, even
				// where the row lock above is a no-op.
				q = q.Where("used_slots <= ?", newTotal)
			}
			result := q.Updates(updates)
			if result.Error != nil {
				return apperr.Transport(result.Error, "update platform failed")
			}
			if result.RowsAffected == 0 {
				return apperr.Conflict("slots were consumed concurrently")
			}
		}
		if errReload := tx.First(&out, id).Error; errReload != nil {
			return apperr.Transport(errReload, "reload platform failed")
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &out, nil
}

// Delete removes a platform. Platforms with consumed slots cannot be
// deleted; the orders holding those slots must be released first.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id uint64) error {
	if errAuth := access.Authorize(sess); errAuth != nil {
		return errAuth
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var platform models.Platform
		if errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&platform, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return apperr.NotFound("platform %d not found", id)
			}
			return apperr.Transport(errFind, "query platform failed")
		}
		if platform.UsedSlots > 0 {
			return apperr.Conflict("platform has %d consumed slots", platform.UsedSlots)
		}
		// The used_slots guard refuses the delete when an approval claimed
		// a slot after the read.
		result := tx.Where("used_slots = 0").Delete(&models.Platform{}, id)
		if result.Error != nil {
			return apperr.Transport(result.Error, "delete platform failed")
		}
		if result.RowsAffected == 0 {
			return apperr.Conflict("slots were consumed concurrently")
		}
		return nil
	})
}

// Get returns one platform by id.
func (s *Service) Get(ctx context.Context, id uint64) (*models.Platform, error) {
	var platform models.Platform
	if errFind := s.db.WithContext(ctx).First(&platform, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("platform %d not found", id)
		}
		return nil, apperr.Transport(errFind, "query platform failed")
	}
	return &platform, nil
}

// List returns platforms, optionally filtered by a name fragment.
func (s *Service) List(ctx context.Context, nameFilter string) ([]models.Platform, error) {
	q := s.db.WithContext(ctx).Model(&models.Platform{})
	if nameFilter = strings.TrimSpace(nameFilter); nameFilter != "" {
		pattern := dbutil.NormalizeLikePattern(s.db, "%"+nameFilter+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(s.db, "name"), pattern)
	}
	var rows []models.Platform
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		return nil, apperr.Transport(errFind, "list platforms failed")
	}
	return rows, nil
}

// ConsumeSlot atomically claims one slot, failing when the platform is full.
func (s *Service) ConsumeSlot(ctx context.Context, id uint64) (*models.Platform, error) {
	var out models.Platform
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errConsume := ConsumeSlotTx(tx, id); errConsume != nil {
			return errConsume
		}
		return reload(tx, id, &out)
	})
	if errTx != nil {
		return nil, errTx
	}
	return &out, nil
}

// ReleaseSlot atomically returns one slot to the pool.
func (s *Service) ReleaseSlot(ctx context.Context, id uint64) (*models.Platform, error) {
	var out models.Platform
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errRelease := ReleaseSlotTx(tx, id); errRelease != nil {
			return errRelease
		}
		return reload(tx, id, &out)
	})
	if errTx != nil {
		return nil, errTx
	}
	return &out, nil
}

// ConsumeSlotTx claims one slot inside an existing transaction. The guarded
// UPDATE is the compare-and-update that prevents overselling: a full
// platform matches zero rows and the claim fails without side effects.
func ConsumeSlotTx(tx *gorm.DB, id uint64) error {
	result := tx.Model(&models.Platform{}).
		Where("id = ? AND used_slots < total_slots", id).
		UpdateColumn("used_slots", gorm.Expr("used_slots + 1"))
	if result.Error != nil {
		return apperr.Transport(result.Error, "consume slot failed")
	}
	if result.RowsAffected == 0 {
		var platform models.Platform
		if errFind := tx.First(&platform, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return apperr.NotFound("platform %d not found", id)
			}
			return apperr.Transport(errFind, "query platform failed")
		}
		return apperr.Capacity("no free slots on %s", platform.Name)
	}
	return nil
}

// ReleaseSlotTx returns one slot inside an existing transaction. Releasing
// below zero is refused so a double release cannot corrupt the counter.
func ReleaseSlotTx(tx *gorm.DB, id uint64) error {
	result := tx.Model(&models.Platform{}).
		Where("id = ? AND used_slots > 0", id).
		UpdateColumn("used_slots", gorm.Expr("used_slots - 1"))
	if result.Error != nil {
		return apperr.Transport(result.Error, "release slot failed")
	}
	if result.RowsAffected == 0 {
		var platform models.Platform
		if errFind := tx.First(&platform, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return apperr.NotFound("platform %d not found", id)
			}
			return apperr.Transport(errFind, "query platform failed")
		}
		return apperr.State("no consumed slots on %s", platform.Name)
	}
	return nil
}

func reload(tx *gorm.DB, id uint64, out *models.Platform) error {
	if errFind := tx.First(out, id).Error; errFind != nil {
		return apperr.Transport(errFind, "reload platform failed")
	}
	return nil
}
