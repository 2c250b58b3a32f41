package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port          int           `env:"PORT" envDefault:"8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"./data/rent.db"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
	MetricsOn     bool          `env:"METRICS_ENABLED" envDefault:"true"`
	SweepOn       bool          `env:"OVERDUE_SWEEP_ENABLED" envDefault:"true"`
	SweepInterval time.Duration `env:"OVERDUE_SWEEP_INTERVAL" envDefault:"1h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
