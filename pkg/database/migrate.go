package database

import (
	"laxmi-billing/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.LoginHistory{},
		&models.Retailer{},
		&models.Product{},
		&models.Bill{},
		&models.Collection{},
		&models.Order{},
		&models.OrderItem{},
	)
}
