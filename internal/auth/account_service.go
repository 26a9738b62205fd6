// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// AccountService validates and persists accounts.
type AccountService struct {
	accounts  AccountRepository
	sessions  SessionRepository
	hasher    PasswordHasher
	validator *CredentialValidator
	opts      serviceOptions
}

// NewAccountService creates an AccountService. sessions may be nil, in which
// case deleting an account leaves its sessions to fail validation on their own.
func NewAccountService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, opts ...Option) (*AccountService, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	return &AccountService{
		accounts:  accounts,
		sessions:  sessions,
		hasher:    hasher,
		validator: NewCredentialValidator(),
		opts:      buildOptions(opts),
	}, nil
}

// Validate runs the credential rules without persisting anything.
func (s *AccountService) Validate(account *Account) ValidationErrors {
	return s.validator.Validate(account)
}

// Save validates and persists account. Invalid accounts are not written and
// the returned error carries ValidationErrors (see AsValidationErrors).
// The hash is recomputed only when a new raw password is pending; the
// transient password fields are cleared after every successful save.
func (s *AccountService) Save(ctx context.Context, account *Account) error {
	if errs := s.validator.Validate(account); !errs.Empty() {
		return oops.Code("ACCOUNT_INVALID").
			With("operation", "validate account").
			Wrap(errs)
	}

	if account.PasswordChanged() {
		hash, err := s.hasher.Hash(account.input.Raw())
		if err != nil {
			return oops.Code("ACCOUNT_SAVE_FAILED").
				With("operation", "hash password").
				Wrap(err)
		}
		account.Hash = hash
	}

	now := s.opts.now()
	account.UpdatedAt = now

	var err error
	if account.IsNew() {
		account.ID = ulid.Make()
		account.CreatedAt = now
		err = s.accounts.Create(ctx, account)
		if err != nil {
			account.ID = ulid.ULID{}
		}
	} else {
		err = s.accounts.Update(ctx, account)
	}

	var dup *DuplicateIdentifierError
	if errors.As(err, &dup) {
		errs := ValidationErrors{}
		errs.Add(dup.Field, MsgTaken)
		return oops.Code("ACCOUNT_INVALID").
			With("operation", "persist account").
			With("field", dup.Field).
			Wrap(errs)
	}
	if err != nil {
		return oops.Code("ACCOUNT_SAVE_FAILED").
			With("operation", "persist account").
			Wrap(err)
	}

	account.input.Reset()
	s.opts.logger.DebugContext(ctx, "account saved", "account_id", account.ID.String())
	return nil
}

// Delete removes an account and, when a session repository is configured,
// its sessions.
func (s *AccountService) Delete(ctx context.Context, id ulid.ULID) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").
				With("account_id", id.String()).
				Wrap(err)
		}
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("account_id", id.String()).
			Wrap(err)
	}

	if s.sessions != nil {
		if err := s.sessions.DeleteByAccount(ctx, id); err != nil {
			s.opts.logger.WarnContext(ctx, "best-effort session cleanup failed",
				"operation", "delete_sessions",
				"account_id", id.String(),
				"error", err,
			)
		}
	}
	return nil
}
