// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides session-based authentication primitives.
//
// # Credentials
//
// Accounts carry a transient raw password and confirmation set with
// Account.SetPassword. AccountService.Save validates them with a
// CredentialValidator, hashes pending passwords with a PasswordHasher and
// clears the transient fields. Authenticator.Authenticate resolves an
// identifier and password to an account by trying the configured
// identifier fields in order.
//
// # Sessions
//
// A Manager is created once per process. Each request obtains a Guard bound
// to its TokenStore; the Guard logs accounts in, resolves the opaque token
// back to an account, and destroys sessions. RequireLoggedUser and
// RedirectLoggedUser turn session state into redirect decisions for the
// host's request filters.
//
// Configuration is built once with NewConfig and is read-only afterwards.
package auth
