// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes  = 32             // 32 bytes = 64 hex chars
	SessionTokenExpiry = 24 * time.Hour // default lifetime
)

// Session is one authenticated browsing session. It refers to its account
// by ID only and never owns the account's lifecycle.
type Session struct {
	ID         ulid.ULID
	AccountID  ulid.ULID
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time

	// Account is populated when the session is resolved by a Guard.
	Account *Account

	accounts AccountRepository
}

// NewSession creates a validated Session for accountID.
func NewSession(accountID ulid.ULID, tokenHash string, createdAt, expiresAt time.Time) (*Session, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(createdAt) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry must be after creation")
	}
	return &Session{
		ID:         ulid.Make(),
		AccountID:  accountID,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt,
		CreatedAt:  createdAt,
		LastSeenAt: createdAt,
	}, nil
}

// Clone returns a copy of the persistent fields without the resolved account.
func (s *Session) Clone() *Session {
	c := *s
	c.Account = nil
	c.accounts = nil
	return &c
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// Valid reports whether the referenced account still exists. A session whose
// account was deleted after login is invalid even though the session record
// may still be present. Lookup failures count as invalid.
func (s *Session) Valid(ctx context.Context) bool {
	if s == nil || s.accounts == nil {
		return false
	}
	ok, err := s.accounts.Exists(ctx, s.AccountID)
	return err == nil && ok
}

// GenerateSessionToken creates a secure random token and its hash.
// The plaintext token goes to the transport; only the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// UpdateLastSeen updates the LastSeenAt timestamp for a session.
	UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByTokenHash removes the session with the given token hash.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByAccount removes all sessions for an account.
	DeleteByAccount(ctx context.Context, accountID ulid.ULID) error

	// DeleteExpired removes sessions expired at now and returns how many
	// were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenStore is the transport-side session store for one request. It owns
// the opaque token; this package never parses cookies or headers.
type TokenStore interface {
	// Token returns the current token, if any.
	Token(ctx context.Context) (string, bool)

	// SetToken replaces the current token.
	SetToken(ctx context.Context, token string)

	// ClearToken removes the current token.
	ClearToken(ctx context.Context)

	// SetReturnTo remembers where to send the visitor after login.
	SetReturnTo(ctx context.Context, url string)

	// PopReturnTo returns and forgets the remembered URL.
	PopReturnTo(ctx context.Context) (string, bool)
}
