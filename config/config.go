package config

import (
	"log"
	"os"
	"path/filepath"

	"laxmi-billing/internal/models"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Defaults DefaultsConfig
	Import   ImportConfig
	Site     models.SiteInfo
}

type ServerConfig struct {
	Port               string
	Env                string
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours"`
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	URL      string
}

type DefaultsConfig struct {
	AdminPassword   string `mapstructure:"admin_password"`
	AdminEmployeeID string `mapstructure:"admin_employee_id"`
	AdminPrefix     string `mapstructure:"admin_prefix"`
	DSRPrefix       string `mapstructure:"dsr_prefix"`
}

// ImportConfig controls spreadsheet uploads for the bulk import routes.
type ImportConfig struct {
	UploadDir       string
	MaxUploadMB     int64
	MaxErrorDetails int
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, checking environment variables: %v", err)
	}

	viper.AutomaticEnv()

	viper.BindEnv("SERVER_PORT", "PORT")
	viper.BindEnv("DATABASE_URL")

	setDefaults(viper.GetViper())

	AppConfig = &Config{
		Server: ServerConfig{
			Port:               viper.GetString("SERVER_PORT"),
			Env:                viper.GetString("SERVER_ENV"),
			JWTSecret:          viper.GetString("JWT_SECRET"),
			JWTExpirationHours: viper.GetInt("JWT_EXPIRATION_HOURS"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			URL:      viper.GetString("DATABASE_URL"),
		},
		Defaults: DefaultsConfig{
			AdminPassword:   viper.GetString("ADMIN_PASSWORD"),
			AdminEmployeeID: viper.GetString("ADMIN_EMPLOYEE_ID"),
			AdminPrefix:     viper.GetString("ADMIN_PREFIX"),
			DSRPrefix:       viper.GetString("DSR_PREFIX"),
		},
		Import: ImportConfig{
			UploadDir:       viper.GetString("UPLOAD_DIR"),
			MaxUploadMB:     viper.GetInt64("UPLOAD_MAX_MB"),
			MaxErrorDetails: viper.GetInt("IMPORT_MAX_ERROR_DETAILS"),
		},
	}
	if AppConfig.Import.UploadDir == "" {
		AppConfig.Import.UploadDir = filepath.Join(os.TempDir(), "laxmi-imports")
	}

	// Company details shown on receipts and the public site-info route.
	siteViper := viper.New()
	siteViper.SetConfigFile("config/config.toml")
	siteViper.SetConfigType("toml")
	if err := siteViper.ReadInConfig(); err != nil {
		log.Printf("Warning: config/config.toml not found, using empty site info: %v", err)
	} else if err := siteViper.UnmarshalKey("site", &AppConfig.Site); err != nil {
		log.Printf("Error: Failed to unmarshal site info from TOML: %v", err)
	}

	log.Printf("Configuration loaded successfully:")
	log.Printf("- Server Port: %s", AppConfig.Server.Port)
	log.Printf("- Server Env: %s", AppConfig.Server.Env)
	log.Printf("- JWT Secret: %s", setOrNot(AppConfig.Server.JWTSecret))
	log.Printf("- Database Driver: %s", AppConfig.Database.Driver)
	log.Printf("- Database Host: %s", AppConfig.Database.Host)
	log.Printf("- Database Name: %s", AppConfig.Database.Name)
	log.Printf("- Database URL: %s", setOrNot(AppConfig.Database.URL))
	log.Printf("- Upload Dir: %s", AppConfig.Import.UploadDir)
	log.Printf("- Company Name: %s", AppConfig.Site.Name)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "production")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("ADMIN_EMPLOYEE_ID", "ADM001")
	v.SetDefault("ADMIN_PREFIX", "ADM")
	v.SetDefault("DSR_PREFIX", "DSR")
	v.SetDefault("UPLOAD_MAX_MB", 20)
	v.SetDefault("IMPORT_MAX_ERROR_DETAILS", 10)
}

func setOrNot(s string) string {
	if s != "" {
		return "SET"
	}
	return "NOT SET"
}

// IsDevelopment reports whether verbose SQL logging should be enabled.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Server.Env == "development"
}
