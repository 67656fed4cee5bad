// Package config loads environment driven configuration for the venue
// operations service.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration values for the service.
//
// The override secret can be supplied either as a plain token, which is
// hashed at startup, or as a pre-computed argon2id hash. Exactly one of the
// two is required.
type Config struct {
	HTTPPort          int    `env:"VENUE_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN         string `env:"VENUE_SQLITE_DSN" envDefault:"file:venueops.db"`
	OverrideToken     string `env:"VENUE_OVERRIDE_TOKEN"`
	OverrideTokenHash string `env:"VENUE_OVERRIDE_TOKEN_HASH"`
	LockWindowDays    int    `env:"VENUE_LOCK_WINDOW_DAYS" envDefault:"10"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.OverrideToken = strings.TrimSpace(cfg.OverrideToken)
	cfg.OverrideTokenHash = strings.TrimSpace(cfg.OverrideTokenHash)

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if cfg.HTTPPort <= 0 {
		invalid = append(invalid, "VENUE_HTTP_PORT")
	}
	if strings.TrimSpace(cfg.SQLiteDSN) == "" {
		invalid = append(invalid, "VENUE_SQLITE_DSN")
	}
	if cfg.LockWindowDays <= 0 {
		invalid = append(invalid, "VENUE_LOCK_WINDOW_DAYS")
	}

	switch {
	case cfg.OverrideToken == "" && cfg.OverrideTokenHash == "":
		missing = append(missing, "VENUE_OVERRIDE_TOKEN or VENUE_OVERRIDE_TOKEN_HASH")
	case cfg.OverrideToken != "" && cfg.OverrideTokenHash != "":
		invalid = append(invalid, "VENUE_OVERRIDE_TOKEN and VENUE_OVERRIDE_TOKEN_HASH are mutually exclusive")
	case cfg.OverrideTokenHash != "" && !strings.HasPrefix(cfg.OverrideTokenHash, "$argon2id$"):
		invalid = append(invalid, "VENUE_OVERRIDE_TOKEN_HASH")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
