// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// DefaultEnvPrefix is the environment variable prefix. Nested keys are
// separated by a double underscore: SIMPLEAUTH_AUTH__SESSION_TTL sets
// auth.session_ttl.
const DefaultEnvPrefix = "SIMPLEAUTH_"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	flags     *pflag.FlagSet
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file to read. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithFlags layers the changed flags of fs over everything else. Flag
// names map to keys by turning the first dash into a dot and the rest into
// underscores: --auth-session-ttl sets auth.session_ttl.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(l *Loader) {
		l.flags = fs
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every source, unmarshals and validates the result.
func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", l.filePath).
				Wrap(err)
		}
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}
	if l.flags != nil {
		if err := l.k.Load(posflag.ProviderWithValue(l.flags, ".", l.k, flagKey), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// All returns the merged key/value view, for diagnostics.
func (l *Loader) All() map[string]any {
	return l.k.All()
}

// envKey maps SIMPLEAUTH_DATABASE__URL to database.url.
func (l *Loader) envKey(s string) string {
	s = strings.TrimPrefix(s, l.envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// flagKey maps --database-url to database.url.
func flagKey(name, value string) (string, any) {
	section, rest, ok := strings.Cut(name, "-")
	if !ok {
		return name, value
	}
	return section + "." + strings.ReplaceAll(rest, "-", "_"), value
}

// FileFromEnv returns the config file named by SIMPLEAUTH_CONFIG, if set.
func FileFromEnv() string {
	return os.Getenv(DefaultEnvPrefix + "CONFIG")
}

// mapProvider feeds a nested map into koanf.
type mapProvider map[string]any

// ReadBytes is not supported; koanf calls Read for map providers.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider does not support ReadBytes")
}

// Read returns the map.
func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}

// Load is shorthand for NewLoader(opts...).Load().
func Load(opts ...Option) (*Config, error) {
	return NewLoader(opts...).Load()
}

// RegisterFlags adds the overridable settings to fs. Defaults shown in help
// come from the default layer; only flags set on the command line override
// file and environment values.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("auth-credentials", "email,login", "comma-separated identifier fields tried in order")
	fs.Duration("auth-session-ttl", 24*time.Hour, "session lifetime")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("log-format", "json", "log format (json, text)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("metrics-addr", "127.0.0.1:9100", "metrics and health listener address")
	fs.Duration("sweep-interval", 10*time.Minute, "expired session sweep interval")
}
