// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads guardpost settings from GUARDPOST_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never be used.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"GUARDPOST_DB_PATH" envDefault:"./data/guardpost.db"`
	SessionSecret string `env:"GUARDPOST_SESSION_SECRET,required"`
	ServerHost    string `env:"GUARDPOST_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"GUARDPOST_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"GUARDPOST_ENV" envDefault:"development"`
	LogLevel      string `env:"GUARDPOST_LOG_LEVEL" envDefault:"info"`

	// SessionStore is "memory" or "sqlite".
	SessionStore string `env:"GUARDPOST_SESSION_STORE" envDefault:"memory"`

	// AdminPassword is used only when the bootstrap admin is first created.
	AdminPassword string `env:"GUARDPOST_ADMIN_PASSWORD"`

	// GeoIPDBPath points at a GeoLite2-Country.mmdb file.
	GeoIPDBPath string `env:"GUARDPOST_GEOIP_DB_PATH"`

	// EventRetentionDays of 0 keeps events forever.
	EventRetentionDays int `env:"GUARDPOST_EVENT_RETENTION_DAYS" envDefault:"90"`
	LongStayHours      int `env:"GUARDPOST_LONG_STAY_HOURS" envDefault:"12"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the listen address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EventRetention is the age after which events are purged, or 0.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// LongStayThreshold is how long a visitor may stay checked in before being
// reported.
func (c Config) LongStayThreshold() time.Duration {
	return time.Duration(c.LongStayHours) * time.Hour
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("GUARDPOST_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if len(c.SessionSecret) < MinSessionSecretLength {
		errs = append(errs, fmt.Errorf("GUARDPOST_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret)))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			errs = append(errs, errors.New("GUARDPOST_SESSION_SECRET is a known default value and must not be used"))
		}
	}

	switch c.Env {
	case "development", "production":
	default:
		errs = append(errs, fmt.Errorf("GUARDPOST_ENV must be development or production, got %q", c.Env))
	}

	switch c.SessionStore {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("GUARDPOST_SESSION_STORE must be memory or sqlite, got %q", c.SessionStore))
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("GUARDPOST_SERVER_PORT out of range: %d", c.ServerPort))
	}
	if c.EventRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("GUARDPOST_EVENT_RETENTION_DAYS must not be negative, got %d", c.EventRetentionDays))
	}
	if c.LongStayHours < 1 {
		errs = append(errs, fmt.Errorf("GUARDPOST_LONG_STAY_HOURS must be at least 1, got %d", c.LongStayHours))
	}

	return errors.Join(errs...)
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
