package database

import (
	"errors"
	"log"

	"laxmi-billing/config"
	"laxmi-billing/internal/models"
	"laxmi-billing/internal/utils"

	"gorm.io/gorm"
)

// SeedRolesAndAdmin makes sure both roles exist and that the configured
// admin account is present.
func SeedRolesAndAdmin(db *gorm.DB, defaults config.DefaultsConfig) error {
	for _, r := range []string{models.RoleAdmin, models.RoleDSR} {
		var role models.Role
		if err := db.FirstOrCreate(&role, models.Role{Name: r}).Error; err != nil {
			log.Printf("Failed to seed role %s: %v", r, err)
			return err
		}
	}

	var adminRole models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var adminUser models.User
	err := db.Where("employee_id = ?", defaults.AdminEmployeeID).First(&adminUser).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if defaults.AdminPassword == "" {
		log.Printf("Warning: ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hashedPassword, err := utils.HashPassword(defaults.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		EmployeeID:   defaults.AdminEmployeeID,
		Username:     "Administrator",
		PasswordHash: hashedPassword,
		RoleID:       adminRole.ID,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed admin user: %v", err)
		return err
	}
	log.Println("Admin user seeded successfully.")
	return nil
}
