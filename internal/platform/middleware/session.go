// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package middleware

import (
	"context"
	"net/http"

	"github.com/sentra-app/sentra/internal/platform/apperr"
	"github.com/sentra-app/sentra/internal/platform/ctxutil"
	"github.com/sentra-app/sentra/internal/platform/respond"
	"github.com/sentra-app/sentra/internal/platform/sec"
)

// SessionResolver defines the behavior needed to turn an encrypted session
// cookie payload into an authenticated principal.
//
// # Why an interface?
//
// Defining SessionResolver here decouples the middleware from the auth
// service implementation, allowing us to easily inject mocks during unit testing.
type SessionResolver interface {
	// ResolveSession decrypts the cookie payload, refreshes the backing
	// session (sliding window), and returns the owning principal.
	// A miss of any kind means "not authenticated", never a hard failure.
	ResolveSession(ctx context.Context, cookieValue string) (*sec.Principal, error)
}

// Session authenticates requests carrying the session cookie.
//
// # Flow
//  1. Check for the session cookie by its configured name.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve and refresh the session via [SessionResolver].
//  4. Inject [*sec.Principal] into the request context for downstream use.
//
// An unresolvable cookie (tampered, expired, evicted) is indistinguishable
// from a never-existing session and yields 401.
func Session(cookieName string, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Anonymous Access ───────────────────────────────────────────
			cookie, err := request.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Session Resolution ─────────────────────────────────────────
			principal, err := resolver.ResolveSession(request.Context(), cookie.Value)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests. It must be mounted after [Session].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
