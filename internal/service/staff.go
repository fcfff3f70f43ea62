package service

import (
	"context"
	"errors"
	"strings"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"

	"gorm.io/gorm"
)

// StaffDirectory resolves users and field staff.
type StaffDirectory struct {
	db       *gorm.DB
	prefixes Prefixes
}

func NewStaffDirectory(db *gorm.DB) *StaffDirectory {
	return &StaffDirectory{db: db}
}

// Actor loads the user behind an authenticated request.
func (s *StaffDirectory) Actor(ctx context.Context, userID uint) (Actor, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&u, userID).Error; err != nil {
		return Actor{}, classify(err, "user")
	}
	if !u.IsActive {
		return Actor{}, apperror.Forbidden("user is inactive")
	}
	return ActorFromUser(u), nil
}

// ResolveDSR finds an active DSR by username, ignoring case.
func (s *StaffDirectory) ResolveDSR(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Field("assignedTo", "staff name is empty")
	}
	var u models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("LOWER(users.username) = LOWER(?) AND users.is_active = ? AND roles.name = ?", name, true, models.RoleDSR).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf("staff '%s' not found", name)
	}
	if err != nil {
		return nil, classify(err, "staff")
	}
	return &u, nil
}

// ListDSRs returns active field staff ordered by name.
func (s *StaffDirectory) ListDSRs(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).
		Preload("Role").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ? AND users.is_active = ?", models.RoleDSR, true).
		Order("users.username").
		Find(&users).Error
	return users, classify(err, "staff")
}

// activeDSR loads id inside tx and checks it is an active DSR.
func activeDSR(tx *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := tx.Preload("Role").First(&u, id).Error; err != nil {
		return nil, classify(err, "staff member")
	}
	if !u.IsDSR() {
		return nil, apperror.Field("assignedTo", "user is not a DSR")
	}
	if !u.IsActive {
		return nil, apperror.Field("assignedTo", "staff member is inactive")
	}
	return &u, nil
}
