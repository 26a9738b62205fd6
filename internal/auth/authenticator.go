// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// dummyPasswordHash is verified when no account matches so that unknown
// identifiers cost the same time as wrong passwords.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Authenticator resolves (identifier, password) pairs to accounts.
type Authenticator struct {
	credentials []string
	lockout     LockoutPolicy
	accounts    AccountRepository
	hasher      PasswordHasher
	opts        serviceOptions
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(cfg Config, accounts AccountRepository, hasher PasswordHasher, opts ...Option) (*Authenticator, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if len(cfg.credentials) == 0 {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("config is required")
	}
	return &Authenticator{
		credentials: cfg.Credentials(),
		lockout:     cfg.Lockout(),
		accounts:    accounts,
		hasher:      hasher,
		opts:        buildOptions(opts),
	}, nil
}

// Authenticate tries each configured identifier field in order and returns
// the first account whose field equals identifier, provided password
// verifies against its stored hash.
//
// A nil account with a nil error means "not authenticated". Unknown
// identifiers, wrong passwords and locked accounts are deliberately
// indistinguishable to the caller. Only storage failures return an error.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) (*Account, error) {
	ctx, span := a.opts.tracer.Start(ctx, "auth.Authenticate")
	defer span.End()

	account, field, err := a.lookup(ctx, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		a.opts.recorder.RecordAuthentication(ResultError)
		return nil, err
	}

	if account == nil {
		// Burn the same time as a real verification.
		_, _ = a.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck // result is irrelevant
		span.SetAttributes(attribute.String("auth.result", ResultUnknown))
		a.opts.recorder.RecordAuthentication(ResultUnknown)
		return nil, nil
	}
	span.SetAttributes(attribute.String("auth.field", field))

	valid, err := a.hasher.Verify(password, account.Hash)
	if err != nil {
		// A corrupt stored hash must not authenticate; it is still a
		// non-distinguishing failure for the caller.
		a.opts.logger.WarnContext(ctx, "stored password hash is unreadable",
			"operation", "verify_password",
			"account_id", account.ID.String(),
			"error", err,
		)
		a.opts.recorder.RecordAuthentication(ResultWrongPassword)
		return nil, nil
	}

	now := a.opts.now()
	if !valid {
		if err := a.accounts.RecordLoginFailure(ctx, account.ID, a.lockout, now); err != nil {
			a.logBestEffort(ctx, account, "record_failure", err)
		}
		span.SetAttributes(attribute.String("auth.result", ResultWrongPassword))
		a.opts.recorder.RecordAuthentication(ResultWrongPassword)
		return nil, nil
	}

	// Checked after verification so locked accounts take the same time.
	if a.lockout.Enabled() && account.IsLocked(now) {
		span.SetAttributes(attribute.String("auth.result", ResultLocked))
		a.opts.recorder.RecordAuthentication(ResultLocked)
		return nil, nil
	}

	if account.FailedAttempts != 0 || account.LockedUntil != nil {
		if err := a.accounts.ResetLoginFailures(ctx, account.ID, now); err != nil {
			a.logBestEffort(ctx, account, "record_success", err)
		}
	}
	account.RecordSuccess(now)
	a.upgradeHash(ctx, account, password, now)

	span.SetAttributes(attribute.String("auth.result", ResultSuccess))
	a.opts.recorder.RecordAuthentication(ResultSuccess)
	return account, nil
}

// lookup returns the account matched by the first configured field, or
// nil when no field matches.
func (a *Authenticator) lookup(ctx context.Context, identifier string) (*Account, string, error) {
	if identifier == "" {
		return nil, "", nil
	}
	for _, field := range a.credentials {
		account, err := a.accounts.FindOne(ctx, field, identifier)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, "", oops.Code("AUTH_STORAGE_FAILED").
				With("operation", "find account").
				With("field", field).
				Wrap(err)
		}
		return account, field, nil
	}
	return nil, "", nil
}

// upgradeHash rehashes password when the stored hash is outdated. The write
// only lands if the stored hash is still the one that was verified, so a
// concurrent password change is never undone.
func (a *Authenticator) upgradeHash(ctx context.Context, account *Account, password string, now time.Time) {
	if !a.hasher.NeedsUpgrade(account.Hash) {
		return
	}
	upgraded, err := a.hasher.Hash(password)
	if err != nil {
		return
	}
	swapped, err := a.accounts.UpgradePasswordHash(ctx, account.ID, account.Hash, upgraded, now)
	if err != nil {
		a.logBestEffort(ctx, account, "upgrade_hash", err)
		return
	}
	if swapped {
		account.Hash = upgraded
	}
}

func (a *Authenticator) logBestEffort(ctx context.Context, account *Account, operation string, err error) {
	a.opts.logger.WarnContext(ctx, "best-effort account update failed",
		"operation", operation,
		"account_id", account.ID.String(),
		"error", err,
	)
}
