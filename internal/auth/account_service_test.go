// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/simpleauth/internal/auth"
	"github.com/holomush/simpleauth/internal/auth/mocks"
	"github.com/holomush/simpleauth/pkg/errutil"
)

func TestNewAccountService_NilDependencies(t *testing.T) {
	_, err := auth.NewAccountService(nil, nil, newTestHasher())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accounts repository is required")

	_, err = auth.NewAccountService(mocks.NewMockAccountRepository(t), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password hasher is required")
}

func TestAccountService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("unsets password after saving", func(t *testing.T) {
		f := newFixture(t)
		a := auth.NewAccount("john@doe.com", "", "")
		a.SetPassword("test", "test")

		require.NoError(t, f.service.Save(ctx, a))

		assert.Empty(t, a.Password().Raw())
		_, set := a.Password().Confirmation()
		assert.False(t, set)
		assert.False(t, a.PasswordChanged())
	})

	t.Run("stores only the hash", func(t *testing.T) {
		f := newFixture(t)
		a := auth.NewAccount("john@doe.com", "", "")
		a.SetPassword("test", "test")
		require.NoError(t, f.service.Save(ctx, a))

		stored, err := f.accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "test", stored.Hash)
		ok, err := f.hasher.Verify("test", stored.Hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("assigns identity and timestamps on create", func(t *testing.T) {
		f := newFixture(t)
		a := auth.NewAccount("john@doe.com", "", "")
		a.SetPassword("test", "test")
		require.NoError(t, f.service.Save(ctx, a))

		assert.False(t, a.IsNew())
		assert.Equal(t, f.clock.Now(), a.CreatedAt)
		assert.Equal(t, f.clock.Now(), a.UpdatedAt)
	})

	t.Run("invalid account is not persisted", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewAccountService(accounts, nil, hasher)
		require.NoError(t, err)

		a := auth.NewAccount("john@doe.com", "", "")
		a.SetPassword("123", "123")

		err = svc.Save(ctx, a)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_INVALID")

		verrs, ok := auth.AsValidationErrors(err)
		require.True(t, ok)
		assert.Contains(t, verrs.On(auth.FieldPassword), auth.MsgTooShort)
		assert.True(t, a.IsNew())
		assert.Equal(t, "123", a.Password().Raw(), "input is kept for correction")
	})

	t.Run("keeps hash when password unchanged on update", func(t *testing.T) {
		f := newFixture(t)
		john := f.createJohn(t)
		before := john.Hash

		john.Login = "john"
		require.NoError(t, f.service.Save(ctx, john))

		stored, err := f.accounts.GetByID(ctx, john.ID)
		require.NoError(t, err)
		assert.Equal(t, "john", stored.Login)
		assert.Equal(t, before, stored.Hash)
	})

	t.Run("rehashes on password change", func(t *testing.T) {
		f := newFixture(t)
		john := f.createJohn(t)
		before := john.Hash

		john.SetPassword("newpass", "newpass")
		require.NoError(t, f.service.Save(ctx, john))
		assert.NotEqual(t, before, john.Hash)

		ok, err := f.hasher.Verify("newpass", john.Hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("duplicate identifier becomes a validation error", func(t *testing.T) {
		f := newFixture(t)
		f.createJohn(t)

		other := auth.NewAccount("JOHN@doe.com", "other", "")
		other.SetPassword("test", "test")
		err := f.service.Save(ctx, other)
		require.Error(t, err)

		verrs, ok := auth.AsValidationErrors(err)
		require.True(t, ok)
		assert.Equal(t, []string{auth.MsgTaken}, verrs.On(auth.IdentifierEmail))
		assert.True(t, other.IsNew())
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewAccountService(accounts, nil, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "test").Return("hashed", nil)
		accounts.On("Create", ctx, mock.AnythingOfType("*auth.Account")).Return(errors.New("connection refused"))

		a := auth.NewAccount("john@doe.com", "", "")
		a.SetPassword("test", "test")
		err = svc.Save(ctx, a)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_SAVE_FAILED")
		_, isValidation := auth.AsValidationErrors(err)
		assert.False(t, isValidation)
		assert.True(t, a.PasswordChanged(), "input survives a failed save")
	})
}

func TestAccountService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes account and its sessions", func(t *testing.T) {
		f := newFixture(t)
		john := f.createJohn(t)
		_, err := f.manager.Guard(newStore("")).Login(ctx, john)
		require.NoError(t, err)
		require.Equal(t, 1, f.sessions.Len())

		require.NoError(t, f.service.Delete(ctx, john.ID))

		exists, err := f.accounts.Exists(ctx, john.ID)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Equal(t, 0, f.sessions.Len())
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.Delete(ctx, ulid.Make())
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("session cleanup failure is best effort", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		sessions := mocks.NewMockSessionRepository(t)
		svc, err := auth.NewAccountService(accounts, sessions, newTestHasher())
		require.NoError(t, err)

		id := ulid.Make()
		accounts.On("Delete", ctx, id).Return(nil)
		sessions.On("DeleteByAccount", ctx, id).Return(errors.New("timeout"))

		assert.NoError(t, svc.Delete(ctx, id))
	})
}
