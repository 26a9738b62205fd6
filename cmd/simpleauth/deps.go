// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/holomush/simpleauth/internal/auth"
	"github.com/holomush/simpleauth/internal/auth/postgres"
	"github.com/holomush/simpleauth/internal/config"
	"github.com/holomush/simpleauth/internal/observability"
	"github.com/holomush/simpleauth/internal/store"
)

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// Backend is the storage a subcommand runs against.
type Backend struct {
	Accounts auth.AccountRepository
	Sessions auth.SessionRepository
	Ready    observability.ReadinessChecker
	Close    func()
}

// Deps contains injectable dependencies for the CLI.
// Nil fields use their default implementations.
type Deps struct {
	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// BackendFactory opens account and session storage.
	// Default: PostgreSQL via store.Connect
	BackendFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error)
}

func (d Deps) withDefaults() Deps {
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if d.BackendFactory == nil {
		d.BackendFactory = postgresBackend
	}
	return d
}

func postgresBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := store.Connect(ctx, cfg.Database.URL, store.ConnectOptions{
		Attempts: cfg.Database.ConnectAttempts,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{
		Accounts: postgres.NewAccountRepository(pool),
		Sessions: postgres.NewSessionRepository(pool),
		Ready: func(ctx context.Context) bool {
			return pool.Ping(ctx) == nil
		},
		Close: pool.Close,
	}, nil
}
