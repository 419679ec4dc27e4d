// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

// Package config loads and validates Kitsubridge configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//   - Environment variables (KITSU_URL, HTTP_PORT, ...)
//   - YAML config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Misconfiguration is fatal at startup: Validate runs before any network
// call is attempted, so a bridge with a missing Kitsu URL or credentials
// never gets far enough to accept a push.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration for the bridge service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Kitsu    KitsuConfig    `koanf:"kitsu"`
	Database DatabaseConfig `koanf:"database"`
	Events   EventsConfig   `koanf:"events"`
	Sync     SyncConfig     `koanf:"sync"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// KitsuConfig holds the tracker API connection settings. Email and
// password are the credentials of a Kitsu account with API access; the
// client logs in for a bearer token and re-authenticates when it expires.
type KitsuConfig struct {
	URL            string        `koanf:"url"`
	Email          string        `koanf:"email"`
	Password       string        `koanf:"password"`
	Timeout        time.Duration `koanf:"timeout"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
}

// DatabaseConfig holds DuckDB settings for the hub entity store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// EventsConfig holds domain event bus settings. With NATS disabled the
// bus runs in process on a Watermill gochannel Pub/Sub; with NATS enabled
// events are also published to JetStream, optionally via an embedded
// server for single-binary deployments.
type EventsConfig struct {
	NATSEnabled    bool   `koanf:"nats_enabled"`
	NATSURL        string `koanf:"nats_url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	SpoolPath      string `koanf:"spool_path"`
	StreamName     string `koanf:"stream_name"`
}

// SyncConfig holds reconciliation settings.
type SyncConfig struct {
	// DefaultUserPassword, when set, is assigned (bcrypt-hashed) to hub
	// user accounts provisioned from Kitsu persons.
	DefaultUserPassword string `koanf:"default_user_password"`
}

// SecurityConfig holds API surface settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

/// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment reports whether the bridge runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateKitsu(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateKitsu() error {
	if c.Kitsu.URL == "" {
		return fmt.Errorf("KITSU_URL is required")
	}
	if err := validateHTTPURL(c.Kitsu.URL, "KITSU_URL"); err != nil {
		return err
	}
	if c.Kitsu.Email == "" {
		return fmt.Errorf("KITSU_EMAIL is required")
	}
	if c.Kitsu.Password == "" {
		return fmt.Errorf("KITSU_PASSWORD is required")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.NATSEnabled {
		return nil
	}
	if c.Events.EmbeddedServer {
		if c.Events.StoreDir == "" {
			return fmt.Errorf("EVENTS_STORE_DIR is required with the embedded NATS server")
		}
		return nil
	}
	if c.Events.NATSURL == "" {
		return fmt.Errorf("EVENTS_NATS_URL is required when EVENTS_NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a value parses as an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
