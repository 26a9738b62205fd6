// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Authorizer decides whether a resolved session may proceed beyond being
// logged in, e.g. a role check.
type Authorizer func(ctx context.Context, s *Session) bool

// AllowAll is the default Authorizer.
func AllowAll(context.Context, *Session) bool { return true }

// Manager holds the process-wide session collaborators. It is safe for
// concurrent use and hands out request-scoped Guards.
type Manager struct {
	cfg      Config
	accounts AccountRepository
	sessions SessionRepository
	opts     serviceOptions
}

// NewManager creates a Manager.
func NewManager(cfg Config, accounts AccountRepository, sessions SessionRepository, opts ...Option) (*Manager, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	}
	if cfg.sessionTTL <= 0 {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("config is required")
	}
	return &Manager{
		cfg:      cfg,
		accounts: accounts,
		sessions: sessions,
		opts:     buildOptions(opts),
	}, nil
}

// Guard returns a guard bound to one request's token store.
func (m *Manager) Guard(store TokenStore) *Guard {
	return &Guard{m: m, store: store}
}

// Guard resolves the current request's session. A Guard is not safe for
// concurrent use; create one per request.
type Guard struct {
	m     *Manager
	store TokenStore

	resolved bool
	current  *Session
}

// Login establishes a new session for an authenticated account and hands
// its token to the transport. Any session already attached to the request
// is discarded first.
func (g *Guard) Login(ctx context.Context, account *Account) (*Session, error) {
	if account == nil || account.IsNew() {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("a persisted account is required")
	}

	g.Destroy(ctx)

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	now := g.m.opts.now()
	session, err := NewSession(account.ID, tokenHash, now, now.Add(g.m.cfg.sessionTTL))
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "build session").
			Wrap(err)
	}

	if err := g.m.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	g.store.SetToken(ctx, token)
	session.Account = account
	session.accounts = g.m.accounts
	g.resolved, g.current = true, session
	g.m.opts.recorder.RecordSession(SessionCreated)
	return session, nil
}

// Find resolves the request's token to a session. It returns nil, nil when
// there is no token, the token is unknown or expired, or the account it
// refers to no longer exists. Only storage failures return an error. The
// result is memoized for the lifetime of the Guard.
func (g *Guard) Find(ctx context.Context) (*Session, error) {
	if g.resolved {
		return g.current, nil
	}

	ctx, span := g.m.opts.tracer.Start(ctx, "auth.Guard.Find")
	defer span.End()

	session, err := g.resolve(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("auth.session_found", session != nil))

	g.resolved, g.current = true, session
	return session, nil
}

func (g *Guard) resolve(ctx context.Context) (*Session, error) {
	token, ok := g.store.Token(ctx)
	if !ok || token == "" {
		return nil, nil
	}

	session, err := g.m.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOOKUP_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := g.m.opts.now()
	if session.IsExpiredAt(now) {
		g.discard(ctx, session, SessionExpired)
		return nil, nil
	}

	account, err := g.m.accounts.GetByID(ctx, session.AccountID)
	if errors.Is(err, ErrNotFound) {
		g.discard(ctx, session, SessionInvalidated)
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOOKUP_FAILED").
			With("operation", "get session account").
			With("account_id", session.AccountID.String()).
			Wrap(err)
	}

	if err := g.m.sessions.UpdateLastSeen(ctx, session.ID, now); err != nil {
		g.m.opts.logger.WarnContext(ctx, "best-effort session touch failed",
			"operation", "update_last_seen",
			"session_id", session.ID.String(),
			"error", err,
		)
	} else {
		session.LastSeenAt = now
	}

	session.Account = account
	session.accounts = g.m.accounts
	return session, nil
}

// discard drops a session that can never become valid again.
func (g *Guard) discard(ctx context.Context, session *Session, event string) {
	if err := g.m.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		g.m.opts.logger.WarnContext(ctx, "best-effort session delete failed",
			"operation", "discard_"+event,
			"session_id", session.ID.String(),
			"error", err,
		)
	}
	g.store.ClearToken(ctx)
	g.m.opts.recorder.RecordSession(event)
}

// Destroy ends the request's session: the stored record is removed and the
// transport token cleared, so later calls to Find return nil. Destroy never
// fails; storage errors are logged.
func (g *Guard) Destroy(ctx context.Context) {
	token, ok := g.store.Token(ctx)
	if ok && token != "" {
		err := g.m.sessions.DeleteByTokenHash(ctx, HashSessionToken(token))
		switch {
		case err == nil:
			g.m.opts.recorder.RecordSession(SessionDestroyed)
		case !errors.Is(err, ErrNotFound):
			g.m.opts.logger.WarnContext(ctx, "best-effort session delete failed",
				"operation", "destroy",
				"error", err,
			)
		}
	}
	g.store.ClearToken(ctx)
	g.resolved, g.current = true, nil
}

// LoggedIn reports whether the request carries a resolvable session.
func (g *Guard) LoggedIn(ctx context.Context) bool {
	return g.CurrentAccount(ctx) != nil
}

// CurrentAccount returns the account of the current session, or nil.
// Storage failures are logged and treated as "no session".
func (g *Guard) CurrentAccount(ctx context.Context) *Account {
	session, err := g.Find(ctx)
	if err != nil {
		g.m.opts.logger.ErrorContext(ctx, "session lookup failed", "error", err)
		return nil
	}
	if session == nil {
		return nil
	}
	return session.Account
}

// Authorized runs the Manager's authorization hook for s.
func (g *Guard) Authorized(ctx context.Context, s *Session) bool {
	return g.m.opts.authorizer(ctx, s)
}
