// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/simpleauth/internal/auth"
	"github.com/holomush/simpleauth/internal/auth/memory"
)

func newSession(t *testing.T, accountID ulid.ULID, created time.Time, ttl time.Duration) *auth.Session {
	t.Helper()
	_, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	s, err := auth.NewSession(accountID, hash, created, created.Add(ttl))
	require.NoError(t, err)
	return s
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	accountID := ulid.Make()

	t.Run("create and lookup", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		s := newSession(t, accountID, now, time.Hour)
		require.NoError(t, repo.Create(ctx, s))
		require.Error(t, repo.Create(ctx, s))

		got, err := repo.GetByTokenHash(ctx, s.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)

		_, err = repo.GetByTokenHash(ctx, "missing")
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})

	t.Run("update last seen", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		s := newSession(t, accountID, now, time.Hour)
		require.NoError(t, repo.Create(ctx, s))

		require.NoError(t, repo.UpdateLastSeen(ctx, s.ID, now.Add(time.Minute)))
		got, err := repo.GetByTokenHash(ctx, s.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, now.Add(time.Minute), got.LastSeenAt)

		assert.True(t, errors.Is(repo.UpdateLastSeen(ctx, ulid.Make(), now), auth.ErrNotFound))
	})

	t.Run("delete variants", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		a := newSession(t, accountID, now, time.Hour)
		b := newSession(t, accountID, now, time.Hour)
		c := newSession(t, accountID, now, time.Hour)
		other := newSession(t, ulid.Make(), now, time.Hour)
		for _, s := range []*auth.Session{a, b, c, other} {
			require.NoError(t, repo.Create(ctx, s))
		}

		require.NoError(t, repo.Delete(ctx, a.ID))
		assert.True(t, errors.Is(repo.Delete(ctx, a.ID), auth.ErrNotFound))

		require.NoError(t, repo.DeleteByTokenHash(ctx, b.TokenHash))
		assert.True(t, errors.Is(repo.DeleteByTokenHash(ctx, b.TokenHash), auth.ErrNotFound))

		require.NoError(t, repo.DeleteByAccount(ctx, accountID))
		assert.Equal(t, 1, repo.Len())
	})

	t.Run("delete expired", func(t *testing.T) {
		repo := memory.NewSessionRepository()
		short := newSession(t, accountID, now, time.Minute)
		long := newSession(t, accountID, now, time.Hour)
		require.NoError(t, repo.Create(ctx, short))
		require.NoError(t, repo.Create(ctx, long))

		n, err := repo.DeleteExpired(ctx, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, 1, repo.Len())

		_, err = repo.GetByTokenHash(ctx, long.TokenHash)
		require.NoError(t, err)
	})
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore("")

	_, ok := store.Token(ctx)
	assert.False(t, ok)

	store.SetToken(ctx, "abc")
	token, ok := store.Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	store.ClearToken(ctx)
	_, ok = store.Token(ctx)
	assert.False(t, ok)

	store.SetReturnTo(ctx, "/admin")
	url, ok := store.PopReturnTo(ctx)
	assert.True(t, ok)
	assert.Equal(t, "/admin", url)
	_, ok = store.PopReturnTo(ctx)
	assert.False(t, ok)
}
