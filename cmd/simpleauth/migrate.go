// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/simpleauth/internal/store"
	"github.com/holomush/simpleauth/pkg/errutil"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back and inspect the embedded accounts and sessions migrations.`,
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		Args:  cobra.NoArgs,
		RunE: opts.withMigrator(func(cmd *cobra.Command, _ []string, m Migrator) error {
			if steps > 0 {
				if err := m.Steps(-steps); err != nil {
					return err
				}
			} else if err := m.Down(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: opts.withMigrator(func(cmd *cobra.Command, _ []string, m Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				return printVersion(cmd, m)
			}),
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: opts.withMigrator(func(cmd *cobra.Command, _ []string, m Migrator) error {
				return printVersion(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied version and pending migrations",
			Args:  cobra.NoArgs,
			RunE:  opts.withMigrator(runMigrateStatus),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it (dirty-state recovery)",
			Args:  cobra.ExactArgs(1),
			RunE: opts.withMigrator(func(cmd *cobra.Command, args []string, m Migrator) error {
				version, err := parseForceVersion(args[0])
				if err != nil {
					return err
				}
				if err := m.Force(version); err != nil {
					return err
				}
				return printVersion(cmd, m)
			}),
		},
	)
	return cmd
}

type migrateFunc func(cmd *cobra.Command, args []string, m Migrator) error

// withMigrator opens a migrator for the configured database around run.
func (o *rootOptions) withMigrator(run migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := o.setup(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		m, err := o.deps.MigratorFactory(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				errutil.LogWarn(logger, "failed to close migrator", closeErr)
			}
		}()
		return run(cmd, args, m)
	}
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("schema version: %s\n", describeVersion(version, dirty))
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string, m Migrator) error {
	status, err := m.Status()
	if err != nil {
		return err
	}
	cmd.Printf("schema version: %s\n", describeVersion(status.Version, status.Dirty))
	if len(status.Pending) == 0 {
		cmd.Println("pending: none")
		return nil
	}
	cmd.Println("pending:")
	for _, v := range status.Pending {
		name, err := store.MigrationName(v)
		if err != nil {
			return err
		}
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func describeVersion(version uint, dirty bool) string {
	s := fmt.Sprintf("%d", version)
	if version == 0 {
		s = "0 (empty)"
	} else if name, err := store.MigrationName(version); err == nil && name != "" {
		s = name
	}
	if dirty {
		s += " (dirty)"
	}
	return s
}

// parseForceVersion reads the leading integer of s.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return version, nil
}
