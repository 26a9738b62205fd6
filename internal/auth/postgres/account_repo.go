// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/simpleauth/internal/auth"
)

// identifierPredicates maps identifier field names to their match
// condition, following auth.IdentifierMatches. FindOne only interpolates
// values from this map into SQL.
var identifierPredicates = map[string]string{
	auth.IdentifierEmail:    "LOWER(email) = LOWER($1)",
	auth.IdentifierLogin:    "login = $1",
	auth.IdentifierUsername: "username = $1",
}

// uniqueIndexes maps the unique index names from the migrations to the
// identifier field they protect.
var uniqueIndexes = map[string]string{
	"accounts_email_key":    auth.IdentifierEmail,
	"accounts_login_key":    auth.IdentifierLogin,
	"accounts_username_key": auth.IdentifierUsername,
}

const accountColumns = `id, email, login, username, password_hash,
		       failed_attempts, locked_until, created_at, updated_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// FindOne retrieves the account whose identifier field equals value.
func (r *AccountRepository) FindOne(ctx context.Context, field, value string) (*auth.Account, error) {
	predicate, ok := identifierPredicates[field]
	if !ok {
		return nil, oops.Code("ACCOUNT_INVALID_FIELD").
			With("field", field).
			Errorf("unknown identifier field %q", field)
	}
	if value == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("field", field).Wrap(auth.ErrNotFound)
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE `+predicate+`
		LIMIT 1
	`, value)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("field", field).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_FIND_FAILED").
			With("operation", "find account").
			With("field", field).
			Wrap(err)
	}
	return account, nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// Exists reports whether an account with the given ID is stored.
func (r *AccountRepository) Exists(ctx context.Context, id ulid.ULID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)
	`, id.String()).Scan(&exists)
	if err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_FAILED").
			With("operation", "check account exists").
			With("id", id.String()).
			Wrap(err)
	}
	return exists, nil
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, email, login, username, password_hash,
			failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		account.ID.String(),
		nullable(account.Email),
		nullable(account.Login),
		nullable(account.Username),
		account.Hash,
		account.FailedAttempts,
		account.LockedUntil,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateIdentifier(err); dup != nil {
			return oops.Code("ACCOUNT_DUPLICATE").
				With("field", dup.Field).
				Wrap(dup)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	return nil
}

// Update writes the identifiers and password hash of an existing account.
// failed_attempts and locked_until are only changed by the login
// bookkeeping methods.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			email = $2,
			login = $3,
			username = $4,
			password_hash = $5,
			updated_at = $6
		WHERE id = $1
	`,
		account.ID.String(),
		nullable(account.Email),
		nullable(account.Login),
		nullable(account.Username),
		account.Hash,
		account.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateIdentifier(err); dup != nil {
			return oops.Code("ACCOUNT_DUPLICATE").
				With("field", dup.Field).
				Wrap(dup)
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// RecordLoginFailure increments failed_attempts in place and sets
// locked_until once the incremented count reaches the policy threshold.
func (r *AccountRepository) RecordLoginFailure(ctx context.Context, id ulid.ULID, policy auth.LockoutPolicy, now time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			failed_attempts = failed_attempts + 1,
			locked_until = CASE
				WHEN $2::int > 0 AND failed_attempts + 1 >= $2::int THEN $3::timestamptz
				ELSE NULL
			END,
			updated_at = $4
		WHERE id = $1
	`, id.String(), policy.Threshold, now.Add(policy.Duration), now)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "record login failure").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ResetLoginFailures clears failed_attempts and locked_until.
func (r *AccountRepository) ResetLoginFailures(ctx context.Context, id ulid.ULID, now time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			failed_attempts = 0,
			locked_until = NULL,
			updated_at = $2
		WHERE id = $1
	`, id.String(), now)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "reset login failures").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpgradePasswordHash replaces password_hash only while it still equals
// oldHash.
func (r *AccountRepository) UpgradePasswordHash(ctx context.Context, id ulid.ULID, oldHash, newHash string, now time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			password_hash = $3,
			updated_at = $4
		WHERE id = $1 AND password_hash = $2
	`, id.String(), oldHash, newHash, now)
	if err != nil {
		return false, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "upgrade password hash").
			With("id", id.String()).
			Wrap(err)
	}
	return result.RowsAffected() == 1, nil
}

// Delete removes an account. Its sessions are left for the caller or the
// expiry sweep; a session whose account is gone no longer validates.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM accounts WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// duplicateIdentifier translates a unique violation on an identifier index.
func duplicateIdentifier(err error) *auth.DuplicateIdentifierError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	field, ok := uniqueIndexes[pgErr.ConstraintName]
	if !ok {
		return nil
	}
	return &auth.DuplicateIdentifierError{Field: field}
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr          string
		email          *string
		login          *string
		username       *string
		passwordHash   string
		failedAttempts int
		lockedUntil    *time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&idStr,
		&email,
		&login,
		&username,
		&passwordHash,
		&failedAttempts,
		&lockedUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:             id,
		Email:          deref(email),
		Login:          deref(login),
		Username:       deref(username),
		Hash:           passwordHash,
		FailedAttempts: failedAttempts,
		LockedUntil:    lockedUntil,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
