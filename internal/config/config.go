// Package config holds runtime settings loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

// Config is the full runtime configuration of the gateway.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"         envDefault:":8080"`
	CoreAPIBaseURL  string        `env:"CORE_API_BASE_URL" envDefault:"http://localhost:9000"`
	CoreAPITimeout  time.Duration `env:"CORE_API_TIMEOUT"  envDefault:"10s"`
	NATSURL         string        `env:"NATS_URL"          envDefault:"nats://localhost:4222"`
	RedisAddr       string        `env:"REDIS_ADDR"        envDefault:""`
	RedisPassword   string        `env:"REDIS_PASSWORD"    envDefault:""`
	RedisDB         int           `env:"REDIS_DB"          envDefault:"0"`
	SnapshotTTL     time.Duration `env:"SNAPSHOT_TTL"      envDefault:"2h"`
	Environment     string        `env:"ENVIRONMENT"       envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL"         envDefault:"info"`
	LogFile         string        `env:"LOG_FILE"          envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"  envDefault:"30s"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no sensible zero value.
func (c *Config) Validate() error {
	if c.CoreAPIBaseURL == "" {
		return fmt.Errorf("CORE_API_BASE_URL is required")
	}
	if c.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required")
	}
	if c.CoreAPITimeout <= 0 {
		return fmt.Errorf("CORE_API_TIMEOUT must be positive")
	}
	return nil
}

// CacheEnabled reports whether the snapshot cache should be wired up.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// IsDevelopment reports whether the gateway runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}
