// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/simpleauth/internal/config"
)

const redacted = "[redacted]"

// NewConfigCmd creates the config command group.
func NewConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after defaults, the config file, SIMPLEAUTH_
environment variables and flags are merged. Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out, err := renderConfig(cfg)
			if err != nil {
				return err
			}
			cmd.Print(string(out))
			return nil
		},
	})
	return cmd
}

// shownConfig mirrors config.Config with YAML-friendly field types.
type shownConfig struct {
	Auth struct {
		Credentials      []string `yaml:"credentials"`
		Model            string   `yaml:"model"`
		LoginURL         string   `yaml:"login_url"`
		LoggedURL        string   `yaml:"logged_url"`
		SessionTTL       string   `yaml:"session_ttl"`
		Pepper           string   `yaml:"pepper"`
		LockoutThreshold int      `yaml:"lockout_threshold"`
		LockoutDuration  string   `yaml:"lockout_duration"`
	} `yaml:"auth"`
	Database struct {
		URL             string `yaml:"url"`
		ConnectAttempts uint64 `yaml:"connect_attempts"`
	} `yaml:"database"`
	Log struct {
		Format string `yaml:"format"`
		Level  string `yaml:"level"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Sweep struct {
		Interval string `yaml:"interval"`
	} `yaml:"sweep"`
}

func renderConfig(cfg *config.Config) ([]byte, error) {
	var s shownConfig
	s.Auth.Credentials = cfg.Auth.Credentials
	s.Auth.Model = cfg.Auth.Model
	s.Auth.LoginURL = cfg.Auth.LoginURL
	s.Auth.LoggedURL = cfg.Auth.LoggedURL
	s.Auth.SessionTTL = cfg.Auth.SessionTTL.String()
	if cfg.Auth.Pepper != "" {
		s.Auth.Pepper = redacted
	}
	s.Auth.LockoutThreshold = cfg.Auth.LockoutThreshold
	s.Auth.LockoutDuration = cfg.Auth.LockoutDuration.String()
	s.Database.URL = config.RedactURL(cfg.Database.URL)
	s.Database.ConnectAttempts = cfg.Database.ConnectAttempts
	s.Log.Format = cfg.Log.Format
	s.Log.Level = cfg.Log.Level
	s.Metrics.Addr = cfg.Metrics.Addr
	s.Sweep.Interval = cfg.Sweep.Interval.String()

	out, err := yaml.Marshal(&s)
	if err != nil {
		return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	return out, nil
}
