// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

// cleanEnv clears the environment and sets the session secret.
func cleanEnv(t *testing.T) {
	t.Helper()
	os.Clearenv()
	t.Setenv("GUARDPOST_SESSION_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/guardpost.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if cfg.SessionStore != "memory" {
		t.Errorf("SessionStore = %q", cfg.SessionStore)
	}
	if cfg.AdminPassword != "" {
		t.Errorf("AdminPassword = %q, want empty", cfg.AdminPassword)
	}
	if cfg.GeoIPEnabled() {
		t.Error("GeoIP should be disabled by default")
	}
	if cfg.EventRetention() != 90*24*time.Hour {
		t.Errorf("EventRetention() = %v", cfg.EventRetention())
	}
	if cfg.LongStayThreshold() != 12*time.Hour {
		t.Errorf("LongStayThreshold() = %v", cfg.LongStayThreshold())
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v", cfg.SlogLevel())
	}
}

func TestLoad_CustomValues(t *testing.T) {
	cleanEnv(t)
	t.Setenv("GUARDPOST_DB_PATH", "/custom/path.db")
	t.Setenv("GUARDPOST_SERVER_HOST", "0.0.0.0")
	t.Setenv("GUARDPOST_SERVER_PORT", "3000")
	t.Setenv("GUARDPOST_ENV", "production")
	t.Setenv("GUARDPOST_LOG_LEVEL", "debug")
	t.Setenv("GUARDPOST_SESSION_STORE", "sqlite")
	t.Setenv("GUARDPOST_ADMIN_PASSWORD", "s3cret-pass")
	t.Setenv("GUARDPOST_GEOIP_DB_PATH", "/geo/GeoLite2-Country.mmdb")
	t.Setenv("GUARDPOST_EVENT_RETENTION_DAYS", "0")
	t.Setenv("GUARDPOST_LONG_STAY_HOURS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be false in production")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v", cfg.SlogLevel())
	}
	if cfg.SessionStore != "sqlite" {
		t.Errorf("SessionStore = %q", cfg.SessionStore)
	}
	if cfg.AdminPassword != "s3cret-pass" {
		t.Errorf("AdminPassword = %q", cfg.AdminPassword)
	}
	if !cfg.GeoIPEnabled() {
		t.Error("GeoIP should be enabled")
	}
	if cfg.EventRetention() != 0 {
		t.Errorf("EventRetention() = %v, want 0", cfg.EventRetention())
	}
	if cfg.LongStayThreshold() != 4*time.Hour {
		t.Errorf("LongStayThreshold() = %v", cfg.LongStayThreshold())
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when GUARDPOST_SESSION_SECRET is not set")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"short secret", "GUARDPOST_SESSION_SECRET", "short", "at least 32 bytes"},
		{"31 byte secret", "GUARDPOST_SESSION_SECRET", strings.Repeat("a", 31), "got 31 bytes"},
		{"weak secret", "GUARDPOST_SESSION_SECRET", "change-me-to-32-byte-secret-key!", "known default"},
		{"bad env", "GUARDPOST_ENV", "staging", "GUARDPOST_ENV"},
		{"bad store", "GUARDPOST_SESSION_STORE", "redis", "GUARDPOST_SESSION_STORE"},
		{"bad port", "GUARDPOST_SERVER_PORT", "70000", "GUARDPOST_SERVER_PORT"},
		{"negative retention", "GUARDPOST_EVENT_RETENTION_DAYS", "-1", "GUARDPOST_EVENT_RETENTION_DAYS"},
		{"zero long stay", "GUARDPOST_LONG_STAY_HOURS", "0", "GUARDPOST_LONG_STAY_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_SessionSecretMinimumLength(t *testing.T) {
	cleanEnv(t)
	t.Setenv("GUARDPOST_SESSION_SECRET", strings.Repeat("Ab1", 11)[:32])

	if _, err := Load(); err != nil {
		t.Fatalf("Load() with 32-byte secret error: %v", err)
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaaaaaAAAAAAAAAAAAAAAA", false},
		{"aaaaaaaaaaAAAAAAAAAA111111111111", true},
		{testSecret, true},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
