// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"net/http"
)

// AlertNeedToBeLogged is the message key attached to login redirects.
const AlertNeedToBeLogged = "sessions.need_to_be_logged"

// Request is the slice of an inbound request the gates need.
type Request struct {
	Method string
	URL    string
}

// URLResolver computes a redirect target lazily for the current request.
type URLResolver func(ctx context.Context, req Request) string

// StaticURL returns a resolver that always yields url.
func StaticURL(url string) URLResolver {
	return func(context.Context, Request) string { return url }
}

// Decision tells the request filter what to do next.
type Decision struct {
	// Allow is true when the request may continue.
	Allow bool

	// Redirect is the target when Allow is false.
	Redirect string

	// Alert is an optional message key for the redirect.
	Alert string
}

// GateOptions overrides the Manager defaults for a single gate.
type GateOptions struct {
	// To replaces the configured redirect target.
	To URLResolver

	// Authorizer replaces the Manager's authorization hook.
	Authorizer Authorizer
}

// RequireLoggedUser lets the request through only with a valid, authorized
// session. Otherwise the session is destroyed, the URL of a GET request is
// remembered for ReturnTo and the visitor is sent to the login URL.
func (g *Guard) RequireLoggedUser(ctx context.Context, req Request, opts GateOptions) (Decision, error) {
	session, err := g.Find(ctx)
	if err != nil {
		return Decision{}, err
	}

	authorize := g.m.opts.authorizer
	if opts.Authorizer != nil {
		authorize = opts.Authorizer
	}

	if session != nil && session.Valid(ctx) && authorize(ctx, session) {
		return Decision{Allow: true}, nil
	}

	if req.Method == http.MethodGet && req.URL != "" {
		g.store.SetReturnTo(ctx, req.URL)
	}
	g.Destroy(ctx)

	return Decision{
		Redirect: g.target(ctx, req, opts.To, g.m.cfg.loginURL),
		Alert:    AlertNeedToBeLogged,
	}, nil
}

// RedirectLoggedUser sends visitors who are already logged in to the
// logged URL, e.g. away from the login form.
func (g *Guard) RedirectLoggedUser(ctx context.Context, req Request, opts GateOptions) (Decision, error) {
	session, err := g.Find(ctx)
	if err != nil {
		return Decision{}, err
	}
	if session == nil {
		return Decision{Allow: true}, nil
	}
	return Decision{Redirect: g.target(ctx, req, opts.To, g.m.cfg.loggedURL)}, nil
}

// ReturnTo pops the URL remembered by RequireLoggedUser, falling back to
// the given resolver when nothing was remembered.
func (g *Guard) ReturnTo(ctx context.Context, req Request, fallback URLResolver) string {
	if url, ok := g.store.PopReturnTo(ctx); ok && url != "" {
		return url
	}
	if fallback == nil {
		return ""
	}
	return fallback(ctx, req)
}

func (g *Guard) target(ctx context.Context, req Request, override, fallback URLResolver) string {
	if override != nil {
		return override(ctx, req)
	}
	if fallback != nil {
		return fallback(ctx, req)
	}
	return ""
}
