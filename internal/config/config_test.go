// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes validation, for tests to
// mutate one field at a time.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Kitsu.URL = "https://kitsu.example.com/api"
	cfg.Kitsu.Email = "bridge@example.com"
	cfg.Kitsu.Password = "secret"
	return cfg
}

func TestDefaultConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Port != 3030 {
		t.Errorf("Server.Port = %d, want 3030", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Kitsu.RequestsPerSec != 10 {
		t.Errorf("Kitsu.RequestsPerSec = %v, want 10", cfg.Kitsu.RequestsPerSec)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
	if cfg.Events.NATSEnabled {
		t.Error("Events.NATSEnabled = true, want false by default")
	}
}

func TestValidateRequiresKitsuCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing url",
			mutate:  func(c *Config) { c.Kitsu.URL = "" },
			wantErr: "KITSU_URL",
		},
		{
			name:    "missing email",
			mutate:  func(c *Config) { c.Kitsu.Email = "" },
			wantErr: "KITSU_EMAIL",
		},
		{
			name:    "missing password",
			mutate:  func(c *Config) { c.Kitsu.Password = "" },
			wantErr: "KITSU_PASSWORD",
		},
		{
			name:    "invalid url scheme",
			mutate:  func(c *Config) { c.Kitsu.URL = "ftp://kitsu.example.com" },
			wantErr: "http",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with port 0 = nil, want error")
	}

	cfg = validConfig()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with port 70000 = nil, want error")
	}

	cfg = validConfig()
	cfg.Server.Timeout = -1 * time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with negative timeout = nil, want error")
	}
}

func TestValidateLogging(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with invalid log level = nil, want error")
	}

	cfg = validConfig()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with invalid log format = nil, want error")
	}
}

func TestValidateValidConfig(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestAddr(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KITSU_URL", "https://kitsu.test.local/api")
	t.Setenv("KITSU_EMAIL", "sync@test.local")
	t.Setenv("KITSU_PASSWORD", "hunter2")
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Kitsu.URL != "https://kitsu.test.local/api" {
		t.Errorf("Kitsu.URL = %q", cfg.Kitsu.URL)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"KITSU_URL", "kitsu.url"},
		{"KITSU_PASSWORD", "kitsu.password"},
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"EVENTS_NATS_URL", "events.nats_url"},
		{"LOG_FORMAT", "logging.format"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
