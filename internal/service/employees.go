package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"
	"laxmi-billing/internal/utils"

	"gorm.io/gorm"
)

const minPasswordLength = 6

type EmployeeInput struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password"`
	Role     string `json:"role" binding:"required,oneof=admin dsr"`
	Mobile   string `json:"mobile" binding:"max=15"`
}

// Prefixes selects the employee id prefix for each role.
type Prefixes struct {
	Admin string
	DSR   string
}

func (p Prefixes) forRole(role string) string {
	if role == models.RoleAdmin && p.Admin != "" {
		return p.Admin
	}
	if role == models.RoleDSR && p.DSR != "" {
		return p.DSR
	}
	return "EMP"
}

// SetPrefixes configures the employee id prefixes used by CreateEmployee.
func (s *StaffDirectory) SetPrefixes(p Prefixes) { s.prefixes = p }

// Authenticate checks credentials and records the login.
func (s *StaffDirectory) Authenticate(ctx context.Context, employeeID, password, ip string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("employee_id = ?", strings.TrimSpace(employeeID)).First(&u).Error
	if err != nil || !utils.CheckPasswordHash(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("user is inactive")
	}
	if err := s.db.WithContext(ctx).Create(&models.LoginHistory{UserID: u.ID, IPAddress: ip}).Error; err != nil {
		return nil, classify(err, "login")
	}
	return &u, nil
}

// ErrInvalidCredentials is returned for an unknown employee id or a wrong password.
var ErrInvalidCredentials = &apperror.Error{Kind: apperror.KindValidation, Message: "invalid credentials"}

func (s *StaffDirectory) CreateEmployee(ctx context.Context, in EmployeeInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, apperror.Field("username", "username is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.Field("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	var u models.User
	err = inTx(s.db.WithContext(ctx), "employee", func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("name = ?", in.Role).First(&role).Error; err != nil {
			return classify(err, "role "+in.Role)
		}
		empID, err := nextEmployeeID(tx, s.prefixes.forRole(in.Role))
		if err != nil {
			return err
		}
		u = models.User{
			EmployeeID:   empID,
			Username:     in.Username,
			Mobile:       strings.TrimSpace(in.Mobile),
			PasswordHash: hash,
			RoleID:       role.ID,
			Role:         role,
			IsActive:     true,
		}
		return tx.Omit("Role").Create(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// nextEmployeeID continues the numeric suffix of the newest id with prefix.
func nextEmployeeID(tx *gorm.DB, prefix string) (string, error) {
	var last models.User
	err := tx.Unscoped().Where("employee_id LIKE ?", prefix+"%").Order("id desc").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Sprintf("%s001", prefix), nil
	}
	if err != nil {
		return "", err
	}
	var n int
	fmt.Sscanf(strings.TrimPrefix(last.EmployeeID, prefix), "%d", &n)
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}

func (s *StaffDirectory) ListEmployees(ctx context.Context, role string) ([]models.User, error) {
	users := []models.User{}
	q := s.db.WithContext(ctx).Preload("Role")
	if role != "" {
		q = q.Joins("JOIN roles ON roles.id = users.role_id").Where("roles.name = ?", role)
	}
	err := q.Order("users.id").Find(&users).Error
	return users, classify(err, "employees")
}

type UpdateEmployeeInput struct {
	Username string `json:"username" binding:"required,max=100"`
	Mobile   string `json:"mobile" binding:"max=15"`
	Role     string `json:"role" binding:"omitempty,oneof=admin dsr"`
}

func (s *StaffDirectory) UpdateEmployee(ctx context.Context, id uint, in UpdateEmployeeInput) (*models.User, error) {
	var u models.User
	err := inTx(s.db.WithContext(ctx), "employee", func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"username": strings.TrimSpace(in.Username),
			"mobile":   strings.TrimSpace(in.Mobile),
		}
		if in.Role != "" {
			var role models.Role
			if err := tx.Where("name = ?", in.Role).First(&role).Error; err != nil {
				return classify(err, "role "+in.Role)
			}
			updates["role_id"] = role.ID
		}
		if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Preload("Role").First(&u, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetEmployeeStatus activates or deactivates a user. Deactivating requires a
// reason.
func (s *StaffDirectory) SetEmployeeStatus(ctx context.Context, id uint, active bool, reason string) error {
	reason = strings.TrimSpace(reason)
	if !active && reason == "" {
		return apperror.Field("inactiveReason", "a reason is required to deactivate a user")
	}
	if active {
		reason = ""
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "inactive_reason": reason})
	if res.Error != nil {
		return classify(res.Error, "employee")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFoundf("employee not found")
	}
	return nil
}

// SetPassword replaces a user's password.
func (s *StaffDirectory) SetPassword(ctx context.Context, id uint, password string) error {
	if len(password) < minPasswordLength {
		return apperror.Field("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return classify(res.Error, "employee")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFoundf("employee not found")
	}
	return nil
}

// ChangePassword lets a user replace their own password after proving the
// current one.
func (s *StaffDirectory) ChangePassword(ctx context.Context, id uint, current, password string) error {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return classify(err, "user")
	}
	if !utils.CheckPasswordHash(current, u.PasswordHash) {
		return apperror.Field("currentPassword", "current password is incorrect")
	}
	return s.SetPassword(ctx, id, password)
}

func (s *StaffDirectory) LoginHistory(ctx context.Context, limit int) ([]models.LoginHistory, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	history := []models.LoginHistory{}
	err := s.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Order("login_time desc").Limit(limit).Find(&history).Error
	return history, classify(err, "login history")
}

type StaffCounts struct {
	Total  int64 `json:"totalEmployees"`
	Active int64 `json:"activeUsers"`
}

func (s *StaffDirectory) Counts(ctx context.Context) (StaffCounts, error) {
	var c StaffCounts
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&c.Total).Error; err != nil {
		return c, classify(err, "employees")
	}
	err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&c.Active).Error
	return c, classify(err, "employees")
}
