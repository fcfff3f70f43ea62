package main

import (
	"log"

	"laxmi-billing/config"
	"laxmi-billing/internal/handler"
	"laxmi-billing/internal/utils"
	"laxmi-billing/pkg/database"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load Configuration
	config.LoadConfig()
	cfg := config.AppConfig
	if cfg.Server.JWTSecret == "" {
		log.Fatalf("JWT_SECRET must be set")
	}
	utils.SetJWTConfig(cfg.Server.JWTSecret, cfg.Server.JWTExpirationHours)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Connect to Database
	database.Connect()

	// 3. Auto-Migrate Models
	log.Println("Running migrations...")
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully.")

	// 3a. Seed Data
	if err := database.SeedRolesAndAdmin(database.DB, cfg.Defaults); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// 4. Routes
	r := handler.NewRouter(database.DB, cfg)

	// 5. Start Server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
