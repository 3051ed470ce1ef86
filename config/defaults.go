package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "elkhorn.db")

	// Source locator defaults mirror the raw data drop layout
	v.SetDefault("sources.donors", "data/raw/donors.csv")
	v.SetDefault("sources.campaigns", "data/raw/campaigns.csv")
	v.SetDefault("sources.donations", "data/raw/donations.csv")
	v.SetDefault("sources.habitats", "data/raw/habitat_areas.json")
	v.SetDefault("sources.projects", "data/raw/conservation_projects.json")
	v.SetDefault("sources.filings", "data/raw/filings/*.txt")

	// Anomaly thresholds (defaults only; operators tune these per org)
	v.SetDefault("anomaly.large_donation_amount", 10000.0)
	v.SetDefault("anomaly.population_decline_pct", 10.0)
	v.SetDefault("anomaly.at_risk_statuses", []string{"At Risk"})

	// Run coordinator defaults
	v.SetDefault("run.entity_timeout_seconds", 120)
	v.SetDefault("run.lock_path", ".elkhorn.lock")
	v.SetDefault("run.report_path", "")
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "ELKHORN_DATABASE_PATH")
}
