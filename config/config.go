// Package config loads and validates the elkhorn runtime configuration.
//
// Configuration is resolved with Viper from (lowest to highest precedence):
// built-in defaults, an elkhorn.toml found by walking up from the working
// directory, ~/.elkhorn/config.toml, and ELKHORN_* environment variables.
package config

// Config represents the full elkhorn pipeline configuration.
type Config struct {
	Database Database `mapstructure:"database" toml:"database"`
	Sources  Sources  `mapstructure:"sources" toml:"sources"`
	Anomaly  Anomaly  `mapstructure:"anomaly" toml:"anomaly"`
	Run      Run      `mapstructure:"run" toml:"run"`
}

// Database configures the SQLite analytics store.
type Database struct {
	Path string `mapstructure:"path" toml:"path"`
}

// Sources holds the per-entity source locators consumed by the readers.
// Paths are resolved relative to the working directory.
type Sources struct {
	Donors    string `mapstructure:"donors" toml:"donors"`       // tabular (CSV)
	Campaigns string `mapstructure:"campaigns" toml:"campaigns"` // tabular (CSV)
	Donations string `mapstructure:"donations" toml:"donations"` // tabular (CSV)
	Habitats  string `mapstructure:"habitats" toml:"habitats"`   // structured document (JSON)
	Projects  string `mapstructure:"projects" toml:"projects"`   // structured document (JSON)
	Filings   string `mapstructure:"filings" toml:"filings"`     // glob of filing text documents
}

// Anomaly holds detection thresholds. These are configuration defaults,
// not business rules baked into the detector.
type Anomaly struct {
	LargeDonationAmount  float64  `mapstructure:"large_donation_amount" toml:"large_donation_amount"`
	PopulationDeclinePct float64  `mapstructure:"population_decline_pct" toml:"population_decline_pct"`
	AtRiskStatuses       []string `mapstructure:"at_risk_statuses" toml:"at_risk_statuses"`
}

// Run configures run-level behavior of the coordinator.
type Run struct {
	EntityTimeoutSeconds int    `mapstructure:"entity_timeout_seconds" toml:"entity_timeout_seconds"`
	LockPath             string `mapstructure:"lock_path" toml:"lock_path"`
	ReportPath           string `mapstructure:"report_path" toml:"report_path"` // empty = stdout only
}
