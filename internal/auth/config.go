// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/samber/oops"
)

// DefaultModel is the entity name used when none is configured.
const DefaultModel = "account"

// Config holds process-wide authentication settings. Build it once at
// startup with NewConfig; components copy what they need and never mutate it.
type Config struct {
	credentials []string
	model       string
	sessionTTL  time.Duration
	lockout     LockoutPolicy
	loginURL    URLResolver
	loggedURL   URLResolver
}

// ConfigOption customizes a Config under construction.
type ConfigOption func(*Config)

// WithCredentials sets the ordered identifier fields tried during authentication.
func WithCredentials(fields ...string) ConfigOption {
	return func(c *Config) {
		c.credentials = slices.Clone(fields)
	}
}

// WithModel sets the entity name. An empty name falls back to DefaultModel.
func WithModel(name string) ConfigOption {
	return func(c *Config) {
		c.model = strings.ToLower(strings.TrimSpace(name))
	}
}

// InferModel derives the entity name from the type of v, the way a host
// type names itself: *Account and Account both yield "account".
func InferModel(v any) ConfigOption {
	return func(c *Config) {
		t := reflect.TypeOf(v)
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t != nil {
			c.model = strings.ToLower(t.Name())
		}
	}
}

// WithSessionTTL sets how long a session stays valid after login.
func WithSessionTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.sessionTTL = ttl
	}
}

// WithLockout enables account lockout with the given policy.
func WithLockout(p LockoutPolicy) ConfigOption {
	return func(c *Config) {
		c.lockout = p
	}
}

// WithLoginURL sets the redirect target for visitors without a valid session.
func WithLoginURL(r URLResolver) ConfigOption {
	return func(c *Config) {
		c.loginURL = r
	}
}

// WithLoggedURL sets the redirect target for visitors already logged in.
func WithLoggedURL(r URLResolver) ConfigOption {
	return func(c *Config) {
		c.loggedURL = r
	}
}

// NewConfig builds a validated Config. Credentials default to ["email"]
// and lockout is disabled unless WithLockout enables it.
func NewConfig(opts ...ConfigOption) (Config, error) {
	c := Config{
		credentials: []string{IdentifierEmail},
		sessionTTL:  SessionTokenExpiry,
		loginURL:    StaticURL("/login"),
		loggedURL:   StaticURL("/"),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.model == "" {
		c.model = DefaultModel
	}

	if len(c.credentials) == 0 {
		return Config{}, oops.Code("CONFIG_INVALID").Errorf("at least one credential field is required")
	}
	seen := make(map[string]bool, len(c.credentials))
	for _, f := range c.credentials {
		if !IsIdentifierField(f) {
			return Config{}, oops.Code("CONFIG_INVALID").
				With("field", f).
				Errorf("unknown credential field %q", f)
		}
		if seen[f] {
			return Config{}, oops.Code("CONFIG_INVALID").
				With("field", f).
				Errorf("duplicate credential field %q", f)
		}
		seen[f] = true
	}
	if c.sessionTTL <= 0 {
		return Config{}, oops.Code("CONFIG_INVALID").
			With("session_ttl", c.sessionTTL.String()).
			Errorf("session TTL must be positive")
	}
	return c, nil
}

// MustConfig is NewConfig for static setups; it panics on invalid options.
func MustConfig(opts ...ConfigOption) Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Credentials returns a copy of the ordered identifier fields.
func (c Config) Credentials() []string { return slices.Clone(c.credentials) }

// Model returns the entity name.
func (c Config) Model() string { return c.model }

// SessionTTL returns the session lifetime.
func (c Config) SessionTTL() time.Duration { return c.sessionTTL }

// Lockout returns the lockout policy.
func (c Config) Lockout() LockoutPolicy { return c.lockout }
