package service

import (
	"testing"

	"laxmi-billing/internal/models"
	"laxmi-billing/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	for _, name := range []string{models.RoleAdmin, models.RoleDSR} {
		require.NoError(t, db.Create(&models.Role{Name: name}).Error)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	var r models.Role
	require.NoError(t, db.Where("name = ?", role).First(&r).Error)
	u := models.User{EmployeeID: name + "-id", Username: name, PasswordHash: "x", RoleID: r.ID, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	u.Role = r
	return u
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// adminActor has no users row; its id stays clear of the ids createUser hands out.
var adminActor = Actor{ID: 9999, Name: "admin", Role: models.RoleAdmin}
