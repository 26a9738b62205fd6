// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads simpleauth settings from defaults, a YAML file,
// SIMPLEAUTH_ environment variables and command-line flags, in that order
// of increasing priority.
package config

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/simpleauth/internal/auth"
)

// Config is the effective process configuration.
type Config struct {
	Auth     AuthConfig     `koanf:"auth"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Sweep    SweepConfig    `koanf:"sweep"`
}

// AuthConfig configures credential checks and sessions.
type AuthConfig struct {
	Credentials      []string      `koanf:"credentials"`
	Model            string        `koanf:"model"`
	LoginURL         string        `koanf:"login_url"`
	LoggedURL        string        `koanf:"logged_url"`
	SessionTTL       time.Duration `koanf:"session_ttl"`
	Pepper           string        `koanf:"pepper"`
	LockoutThreshold int           `koanf:"lockout_threshold"` // 0 disables lockout
	LockoutDuration  time.Duration `koanf:"lockout_duration"`
}

// DatabaseConfig locates PostgreSQL.
type DatabaseConfig struct {
	URL             string `koanf:"url"`
	ConnectAttempts uint64 `koanf:"connect_attempts"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// SweepConfig configures the expired-session sweeper.
type SweepConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// defaults is the lowest-priority layer.
func defaults() map[string]any {
	return map[string]any{
		"auth": map[string]any{
			"credentials":       []string{auth.IdentifierEmail, auth.IdentifierLogin},
			"model":             auth.DefaultModel,
			"login_url":         "/login",
			"logged_url":        "/",
			"session_ttl":       auth.SessionTokenExpiry,
			"pepper":            "",
			"lockout_threshold": 0,
			"lockout_duration":  auth.DefaultLockoutDuration,
		},
		"database": map[string]any{
			"url":              "",
			"connect_attempts": uint64(5),
		},
		"log": map[string]any{
			"format": "json",
			"level":  "info",
		},
		"metrics": map[string]any{
			"addr": "127.0.0.1:9100",
		},
		"sweep": map[string]any{
			"interval": 10 * time.Minute,
		},
	}
}

var (
	logFormats = []string{"json", "text"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration without touching external resources.
func (c *Config) Validate() error {
	if len(c.Auth.Credentials) == 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.credentials").
			Errorf("at least one credential field is required")
	}
	for _, f := range c.Auth.Credentials {
		if !auth.IsIdentifierField(f) {
			return oops.Code("CONFIG_INVALID").
				With("key", "auth.credentials").
				With("value", f).
				Errorf("unknown credential field %q (valid: %s)", f, strings.Join(auth.IdentifierFields, ", "))
		}
	}
	if c.Auth.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.session_ttl").
			Errorf("session TTL must be positive, got %s", c.Auth.SessionTTL)
	}
	if c.Auth.LockoutThreshold < 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.lockout_threshold").
			Errorf("lockout threshold cannot be negative")
	}
	if c.Auth.LockoutThreshold > 0 && c.Auth.LockoutDuration <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.lockout_duration").
			Errorf("lockout duration must be positive when lockout is enabled")
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return oops.Code("CONFIG_INVALID").
			With("key", "log.format").
			Errorf("invalid log format %q (valid: %s)", c.Log.Format, strings.Join(logFormats, ", "))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return oops.Code("CONFIG_INVALID").
			With("key", "log.level").
			Errorf("invalid log level %q (valid: %s)", c.Log.Level, strings.Join(logLevels, ", "))
	}
	if c.Sweep.Interval <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "sweep.interval").
			Errorf("sweep interval must be positive")
	}
	return nil
}

// RequireDatabase reports a configuration error when no database URL is set.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "database.url").
			Errorf("database URL is required (set database.url or SIMPLEAUTH_DATABASE__URL)")
	}
	return nil
}

// AuthConfig builds the immutable auth.Config.
func (c *Config) AuthConfig() (auth.Config, error) {
	//nolint:wrapcheck // auth.NewConfig returns coded errors
	return auth.NewConfig(
		auth.WithCredentials(c.Auth.Credentials...),
		auth.WithModel(c.Auth.Model),
		auth.WithSessionTTL(c.Auth.SessionTTL),
		auth.WithLockout(auth.LockoutPolicy{
			Threshold: c.Auth.LockoutThreshold,
			Duration:  c.Auth.LockoutDuration,
		}),
		auth.WithLoginURL(auth.StaticURL(c.Auth.LoginURL)),
		auth.WithLoggedURL(auth.StaticURL(c.Auth.LoggedURL)),
	)
}

// Hasher builds the password hasher, keyed by the configured pepper.
func (c *Config) Hasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasher(auth.WithPepper(c.Auth.Pepper))
}

// RedactURL hides the password in a database URL. Unparseable input is
// hidden entirely since it may still contain credentials.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable]"
	}
	return u.Redacted()
}
