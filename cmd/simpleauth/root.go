// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/holomush/simpleauth/internal/auth"
	"github.com/holomush/simpleauth/internal/config"
	"github.com/holomush/simpleauth/internal/logging"
	"github.com/holomush/simpleauth/internal/xdg"
)

const serviceName = "simpleauth"

// rootOptions holds the persistent flags and dependencies shared by every
// subcommand.
type rootOptions struct {
	configFile string
	flags      *pflag.FlagSet
	deps       Deps
}

// NewRootCmd creates the root command for the simpleauth CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(Deps{})
}

func newRootCmd(deps Deps) *cobra.Command {
	opts := &rootOptions{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "simpleauth",
		Short: "simpleauth - session-based authentication administration",
		Long: `simpleauth manages the accounts and sessions behind a session-based
authentication core: database migrations, account maintenance and
expired-session sweeping.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		"config file path (default $SIMPLEAUTH_CONFIG, then $XDG_CONFIG_HOME/simpleauth/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())
	opts.flags = cmd.PersistentFlags()

	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewAccountCmd(opts))
	cmd.AddCommand(NewSessionsCmd(opts))
	cmd.AddCommand(NewConfigCmd(opts))

	return cmd
}

// loadConfig resolves the effective configuration for this invocation.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configFile
	if path == "" {
		path = config.FileFromEnv()
	}
	if path == "" {
		path, _ = xdg.ExistingConfigFile()
	}
	loaderOpts := []config.Option{config.WithFlags(o.flags)}
	if path != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(path))
	}
	return config.Load(loaderOpts...)
}

// setup loads configuration and builds the logger.
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.Setup(serviceName, cmd.Root().Version, logging.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").With("key", "log.level").Wrap(err)
	}
	return cfg, logger, nil
}

// app is what a storage-backed subcommand works with.
type app struct {
	cfg     *config.Config
	authCfg auth.Config
	logger  *slog.Logger
	backend *Backend
}

// open runs setup and opens the backend. Callers must Close the app.
func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := o.setup(cmd)
	if err != nil {
		return nil, err
	}
	authCfg, err := cfg.AuthConfig()
	if err != nil {
		return nil, err
	}
	backend, err := o.deps.BackendFactory(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, authCfg: authCfg, logger: logger, backend: backend}, nil
}

func (a *app) Close() {
	if a.backend.Close != nil {
		a.backend.Close()
	}
}
