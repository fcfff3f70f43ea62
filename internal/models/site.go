package models

// SiteInfo is the company block loaded from config/config.toml.
type SiteInfo struct {
	Name        string   `json:"name" mapstructure:"name"`
	Tagline     string   `json:"tagline" mapstructure:"tagline"`
	Address     string   `json:"address" mapstructure:"address"`
	Phone       string   `json:"phone" mapstructure:"phone"`
	Email       string   `json:"email" mapstructure:"email"`
	GSTIN       string   `json:"gstin" mapstructure:"gstin"`
	WorkingDays []string `json:"workingDays" mapstructure:"working_days"`
}
