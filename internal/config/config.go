package config

import (
	"github.com/caarlos0/env/v11"

	"bazaar-ads/internal/config/configs"
)

// Config aggregates all configuration sections for the application. Fields
// are populated from environment variables using the caarlos0/env library.
// The nested structs are tagged with envPrefix so their fields are parsed
// with the given prefix. See the individual types in the configs package
// for default values and options. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev).
	Env string `env:"ENV" envDefault:"prod"`

	// HTTP holds configuration for the HTTP server (HTTP_ prefix).
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger (LOG_ prefix).
	Log configs.Logger `envPrefix:"LOG_"`

	// Psql configures the PostgreSQL connection (PSQL_ prefix).
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// Ads configures the budget and placement engine (ADS_ prefix).
	Ads configs.Ads `envPrefix:"ADS_"`
}

// Load reads configuration from environment variables into a Config. All
// fields take their specified defaults when no environment variable is
// provided.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
