// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

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
  - DI-Friendly: Passed to core components (DB, Redis, Mail) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Sentra API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL) — the store of record for user accounts.
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — the volatile tier for sessions and tokens.
	RedisURL string `env:"REDIS_URL,required"`

	// JWTSecret signs the short-lived action tokens (HS256).
	JWTSecret string `env:"JWT_SECRET,required"`

	// SessionSecret encrypts the session storage key before it is handed
	// to the client as the session cookie payload.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// SessionKeyName is both the cookie name and the Redis key namespace
	// for session records.
	SessionKeyName string `env:"SESSION_KEY_NAME" envDefault:"sid"`

	// SessionMaxAge is the absolute session lifetime. Activity slides the
	// window; inactivity beyond this duration invalidates the session.
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`

	// ClientURL is the public frontend origin used to build verification
	// and recovery links embedded in outbound mail.
	ClientURL string `env:"CLIENT_URL,required"`

	// Outbound mail queue (Kafka)
	KafkaBroker   string `env:"KAFKA_BROKER,required"`
	KafkaTopic    string `env:"KAFKA_TOPIC" envDefault:"sentra.mail"`
	KafkaUsername string `env:"KAFKA_USERNAME"`
	KafkaPassword string `env:"KAFKA_PASSWORD"`

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

// AllowedOrigins returns the exact origins permitted by CORS outside of
// development: the public client origin plus any comma-separated extras.
func (c *Config) AllowedOrigins() []string {
	origins := []string{c.ClientURL}
	for _, extra := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(extra); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
