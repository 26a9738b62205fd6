// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package memory

import (
	"context"
	"sync"

	"github.com/holomush/simpleauth/internal/auth"
)

// TokenStore is an auth.TokenStore holding a single token, standing in for
// a host framework's per-request session store.
type TokenStore struct {
	mu       sync.Mutex
	token    string
	returnTo string
}

// NewTokenStore creates a TokenStore, optionally preloaded with token.
func NewTokenStore(token string) *TokenStore {
	return &TokenStore{token: token}
}

// Token implements auth.TokenStore.
func (s *TokenStore) Token(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// SetToken implements auth.TokenStore.
func (s *TokenStore) SetToken(_ context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// ClearToken implements auth.TokenStore.
func (s *TokenStore) ClearToken(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// SetReturnTo implements auth.TokenStore.
func (s *TokenStore) SetReturnTo(_ context.Context, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.returnTo = url
}

// PopReturnTo implements auth.TokenStore.
func (s *TokenStore) PopReturnTo(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := s.returnTo
	s.returnTo = ""
	return url, url != ""
}

// Compile-time interface check.
var _ auth.TokenStore = (*TokenStore)(nil)
