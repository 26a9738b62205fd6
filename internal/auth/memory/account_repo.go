// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/simpleauth/internal/auth"
)

// AccountRepository implements auth.AccountRepository in memory.
// Identifier matching follows auth.IdentifierMatches, like the PostgreSQL
// repository.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[ulid.ULID]*auth.Account
}

// NewAccountRepository creates an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[ulid.ULID]*auth.Account)}
}

// FindOne retrieves the single account whose identifier field equals value.
func (r *AccountRepository) FindOne(_ context.Context, field, value string) (*auth.Account, error) {
	if !auth.IsIdentifierField(field) {
		return nil, oops.Code("ACCOUNT_INVALID_FIELD").
			With("field", field).
			Errorf("unknown identifier field %q", field)
	}
	if value == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("field", field).Wrap(auth.ErrNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if v, _ := a.Identifier(field); auth.IdentifierMatches(field, v, value) {
			return a.Clone(), nil
		}
	}
	return nil, oops.Code("ACCOUNT_NOT_FOUND").
		With("field", field).
		Wrap(auth.ErrNotFound)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, notFound(id)
	}
	return a.Clone(), nil
}

// Exists reports whether an account with the given ID is stored.
func (r *AccountRepository) Exists(_ context.Context, id ulid.ULID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.accounts[id]
	return ok, nil
}

// Create stores a new account.
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; ok {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("id", account.ID.String()).
			Errorf("account already exists")
	}
	if err := r.checkUnique(account); err != nil {
		return err
	}
	r.accounts[account.ID] = account.Clone()
	return nil
}

// Update writes the identifiers and password hash of an existing account.
// The stored lockout bookkeeping is kept.
func (r *AccountRepository) Update(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok {
		return notFound(account.ID)
	}
	if err := r.checkUnique(account); err != nil {
		return err
	}
	updated := account.Clone()
	updated.FailedAttempts = stored.FailedAttempts
	updated.LockedUntil = stored.LockedUntil
	updated.CreatedAt = stored.CreatedAt
	r.accounts[account.ID] = updated
	return nil
}

// RecordLoginFailure increments the failure count and applies policy.
func (r *AccountRepository) RecordLoginFailure(_ context.Context, id ulid.ULID, policy auth.LockoutPolicy, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return notFound(id)
	}
	stored.RecordFailure(policy, now)
	return nil
}

// ResetLoginFailures clears the failure count and any lock.
func (r *AccountRepository) ResetLoginFailures(_ context.Context, id ulid.ULID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return notFound(id)
	}
	stored.RecordSuccess(now)
	return nil
}

// UpgradePasswordHash swaps the hash if it still equals oldHash.
func (r *AccountRepository) UpgradePasswordHash(_ context.Context, id ulid.ULID, oldHash, newHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok || stored.Hash != oldHash {
		return false, nil
	}
	stored.Hash = newHash
	stored.UpdatedAt = now
	return true, nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return notFound(id)
	}
	delete(r.accounts, id)
	return nil
}

// checkUnique must be called with the write lock held.
func (r *AccountRepository) checkUnique(account *auth.Account) error {
	for _, field := range auth.IdentifierFields {
		want, _ := account.Identifier(field)
		if want == "" {
			continue
		}
		for id, other := range r.accounts {
			if id == account.ID {
				continue
			}
			if got, _ := other.Identifier(field); auth.IdentifierMatches(field, got, want) {
				return oops.Code("ACCOUNT_DUPLICATE").
					With("field", field).
					Wrap(&auth.DuplicateIdentifierError{Field: field})
			}
		}
	}
	return nil
}

func notFound(id ulid.ULID) error {
	return oops.Code("ACCOUNT_NOT_FOUND").
		With("id", id.String()).
		Wrap(auth.ErrNotFound)
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
