// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/simpleauth/pkg/errutil"
)

type flakyDB struct {
	failures int
	calls    int
}

func (f *flakyDB) Ping(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitReady(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("succeeds after transient failures", func(t *testing.T) {
		db := &flakyDB{failures: 2}
		err := waitReady(context.Background(), db, ConnectOptions{Attempts: 5, BaseDelay: time.Millisecond, Logger: quiet})
		require.NoError(t, err)
		assert.Equal(t, 3, db.calls)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		db := &flakyDB{failures: 100}
		err := waitReady(context.Background(), db, ConnectOptions{Attempts: 3, BaseDelay: time.Millisecond, Logger: quiet})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
		assert.Equal(t, 3, db.calls)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		db := &flakyDB{failures: 100}
		err := waitReady(ctx, db, ConnectOptions{Attempts: 10, BaseDelay: time.Hour, Logger: quiet})
		require.Error(t, err)
		assert.LessOrEqual(t, db.calls, 1)
	})

	t.Run("logs each failed attempt", func(t *testing.T) {
		var buf bytes.Buffer
		db := &flakyDB{failures: 1}
		err := waitReady(context.Background(), db, ConnectOptions{
			BaseDelay: time.Millisecond,
			Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
		})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "database not ready")
		assert.Contains(t, buf.String(), "attempt=1")
	})
}
