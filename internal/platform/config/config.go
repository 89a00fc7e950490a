// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, access services) via constructors.
  - Fail-Fast: Missing secrets (master key, derivation secret) abort startup
    before the server ever accepts a login.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Velour access API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Identity directory (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Volatile state store for attempts, sessions, and member codes (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// MasterKey is the fixed operator credential. A missing master key is a
	// fatal misconfiguration: the service must refuse to accept logins.
	MasterKey string `env:"MASTER_KEY,required"`

	// DeriveSecret seeds the rotating-code derivation. Rotating it
	// invalidates every not-yet-provisioned window code at once.
	DeriveSecret string `env:"DERIVE_SECRET,required"`

	// CodeWindow is the width of each derivation epoch (default 7 days).
	CodeWindow time.Duration `env:"CODE_WINDOW" envDefault:"168h"`

	// Brute-force lockout policy
	LockThreshold int           `env:"LOCK_THRESHOLD" envDefault:"5"`
	LockDuration  time.Duration `env:"LOCK_DURATION"  envDefault:"15m"`

	// Session lifetime policy
	SessionTTL         time.Duration `env:"SESSION_TTL"          envDefault:"20m"`
	SessionRenewWithin time.Duration `env:"SESSION_RENEW_WITHIN" envDefault:"15m"`

	// Cryptographic keys for session token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Renewal must fit inside the session window, otherwise Extend would
	// fire on every request.
	if cfg.SessionRenewWithin > cfg.SessionTTL {
		return nil, fmt.Errorf("config: SESSION_RENEW_WITHIN (%s) must not exceed SESSION_TTL (%s)",
			cfg.SessionRenewWithin, cfg.SessionTTL)
	}

	if cfg.LockThreshold < 1 {
		return nil, fmt.Errorf("config: LOCK_THRESHOLD must be at least 1, got %d", cfg.LockThreshold)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
