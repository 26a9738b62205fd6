// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides in-memory implementations of the auth
// repositories and token store, for tests and single-process embedding.
package memory
