// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Identifier fields an account can be looked up by.
const (
	IdentifierEmail    = "email"
	IdentifierLogin    = "login"
	IdentifierUsername = "username"
)

// IdentifierFields lists every identifier field in canonical order.
var IdentifierFields = []string{IdentifierEmail, IdentifierLogin, IdentifierUsername}

// IsIdentifierField reports whether name is a known identifier field.
func IsIdentifierField(name string) bool {
	for _, f := range IdentifierFields {
		if f == name {
			return true
		}
	}
	return false
}

// IdentifierMatches reports whether a stored identifier value equals value.
// Email addresses compare case-insensitively; login and username are exact.
func IdentifierMatches(field, stored, value string) bool {
	if field == IdentifierEmail {
		return strings.EqualFold(stored, value)
	}
	return stored == value
}

// Authenticatable is the capability an entity needs for password
// validation and hashing.
type Authenticatable interface {
	// AccountID returns the persistent identity; zero for unsaved records.
	AccountID() ulid.ULID

	// IsNew reports whether the record has never been persisted.
	IsNew() bool

	// Identifier returns the value of an identifier field.
	Identifier(field string) (string, bool)

	// PasswordHash returns the stored hash.
	PasswordHash() string

	// SetPasswordHash replaces the stored hash.
	SetPasswordHash(hash string)

	// Password returns the pending raw password input.
	Password() *PasswordInput
}

// Account is the authenticable entity.
type Account struct {
	ID             ulid.ULID
	Email          string `validate:"omitempty,email"`
	Login          string
	Username       string
	Hash           string
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	input PasswordInput
}

// NewAccount returns an unsaved account with the given identifiers.
func NewAccount(email, login, username string) *Account {
	return &Account{Email: email, Login: login, Username: username}
}

// Clone returns a deep copy of the persistent fields. Pending password
// input is not copied.
func (a *Account) Clone() *Account {
	c := *a
	c.input = PasswordInput{}
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		c.LockedUntil = &t
	}
	return &c
}

// AccountID implements Authenticatable.
func (a *Account) AccountID() ulid.ULID { return a.ID }

// IsNew implements Authenticatable.
func (a *Account) IsNew() bool {
	return a.ID.Compare(ulid.ULID{}) == 0
}

// Identifier implements Authenticatable.
func (a *Account) Identifier(field string) (string, bool) {
	switch field {
	case IdentifierEmail:
		return a.Email, true
	case IdentifierLogin:
		return a.Login, true
	case IdentifierUsername:
		return a.Username, true
	default:
		return "", false
	}
}

// PasswordHash implements Authenticatable.
func (a *Account) PasswordHash() string { return a.Hash }

// SetPasswordHash implements Authenticatable.
func (a *Account) SetPasswordHash(hash string) { a.Hash = hash }

// Password implements Authenticatable.
func (a *Account) Password() *PasswordInput { return &a.input }

// SetPassword stores the raw password and its confirmation. Nothing is
// hashed until the account is saved.
func (a *Account) SetPassword(raw, confirmation string) {
	a.input.SetPassword(raw)
	a.input.SetConfirmation(confirmation)
}

// SetPasswordOnly assigns the raw password and leaves any confirmation as is.
func (a *Account) SetPasswordOnly(raw string) {
	a.input.SetPassword(raw)
}

// SetConfirmation assigns the password confirmation.
func (a *Account) SetConfirmation(confirmation string) {
	a.input.SetConfirmation(confirmation)
}

// PasswordChanged reports whether a non-empty raw password is pending a save.
func (a *Account) PasswordChanged() bool {
	return a.input.Changed()
}

// IsLocked reports whether the account is locked out at now.
func (a *Account) IsLocked(now time.Time) bool {
	return IsLockedOut(a.LockedUntil, now)
}

// RecordFailure counts a failed password check and applies the lockout policy.
func (a *Account) RecordFailure(policy LockoutPolicy, now time.Time) {
	a.FailedAttempts++
	a.LockedUntil = policy.Until(a.FailedAttempts, now)
	a.UpdatedAt = now
}

// RecordSuccess clears failure bookkeeping after a successful login.
func (a *Account) RecordSuccess(now time.Time) {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = now
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// FindOne retrieves the single account whose identifier field equals value.
	// Returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, field, value string) (*Account, error)

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// Exists reports whether an account with the given ID is stored.
	Exists(ctx context.Context, id ulid.ULID) (bool, error)

	// Create stores a new account.
	Create(ctx context.Context, account *Account) error

	// Update writes the identifiers and password hash of an existing account.
	// Lockout bookkeeping is left untouched.
	Update(ctx context.Context, account *Account) error

	// RecordLoginFailure atomically increments the failure count of an
	// account and applies policy to the incremented count.
	RecordLoginFailure(ctx context.Context, id ulid.ULID, policy LockoutPolicy, now time.Time) error

	// ResetLoginFailures clears the failure count and any lock.
	ResetLoginFailures(ctx context.Context, id ulid.ULID, now time.Time) error

	// UpgradePasswordHash replaces the stored hash only while it still
	// equals oldHash. It reports whether the hash was replaced.
	UpgradePasswordHash(ctx context.Context, id ulid.ULID, oldHash, newHash string, now time.Time) (bool, error)

	// Delete removes an account.
	Delete(ctx context.Context, id ulid.ULID) error
}
