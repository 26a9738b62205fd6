// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/simpleauth/internal/auth/memory"
	"github.com/holomush/simpleauth/internal/config"
	"github.com/holomush/simpleauth/internal/store"
)

// cleanEnv isolates a test from SIMPLEAUTH_ variables in the caller's shell.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, config.DefaultEnvPrefix) {
			t.Setenv(k, "") // restores the original value on cleanup
			require.NoError(t, os.Unsetenv(k))
		}
	}
	t.Setenv(config.DefaultEnvPrefix+"LOG__LEVEL", "error")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

type result struct {
	out    string
	errOut string
}

// execute runs the root command with args and optional stdin.
func execute(t *testing.T, deps Deps, stdin string, args ...string) (result, error) {
	t.Helper()
	cmd := newRootCmd(deps)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{out: out.String(), errOut: errOut.String()}, err
}

// memoryBackend serves the CLI from in-memory repositories.
type memoryBackend struct {
	accounts *memory.AccountRepository
	sessions *memory.SessionRepository
	opened   int
	closed   int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		accounts: memory.NewAccountRepository(),
		sessions: memory.NewSessionRepository(),
	}
}

func (b *memoryBackend) deps() Deps {
	return Deps{
		BackendFactory: func(context.Context, *config.Config, *slog.Logger) (*Backend, error) {
			b.opened++
			return &Backend{
				Accounts: b.accounts,
				Sessions: b.sessions,
				Close:    func() { b.closed++ },
			}, nil
		},
	}
}

// fakeMigrator records calls and reports a fixed schema state.
type fakeMigrator struct {
	calls   []string
	version uint
	dirty   bool
	pending []uint
	err     error
	closed  bool
}

func (m *fakeMigrator) Up() error {
	m.calls = append(m.calls, "up")
	m.version, m.pending = 2, nil
	return m.err
}

func (m *fakeMigrator) Down() error {
	m.calls = append(m.calls, "down")
	m.version = 0
	return m.err
}

func (m *fakeMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.version = uint(int(m.version) + n)
	return m.err
}

func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, nil }

func (m *fakeMigrator) Force(version int) error {
	m.calls = append(m.calls, "force")
	m.version, m.dirty = uint(version), false
	return m.err
}

func (m *fakeMigrator) Status() (store.Status, error) {
	return store.Status{Version: m.version, Dirty: m.dirty, Pending: m.pending}, nil
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

func (m *fakeMigrator) deps(gotURL *string) Deps {
	return Deps{
		MigratorFactory: func(databaseURL string) (Migrator, error) {
			if gotURL != nil {
				*gotURL = databaseURL
			}
			return m, nil
		},
	}
}
