// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard implements the pre-navigation policy engine.

Before every guarded navigation it reads the auth store and decides one of
three outcomes: allow, redirect to login, or redirect home. The decision
pipeline mirrors the platform's access model:

 1. Resolve the document title from route metadata.
 2. Public routes pass through (except login/register for an already
    authenticated user, who is bounced home).
 3. Initialization barrier: wait, bounded, for the page-load auth probe.
 4. Loading barrier + one last-resort server probe before giving up.
 5. VIP gate (VIP or ROOT), then admin gate (ROOT only).

All waits are deadline-bounded and abort early on context cancellation, so
a torn-down navigation never keeps polling into the void.
*/
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/kotae/internal/platform/apperr"
	"github.com/taibuivan/kotae/internal/platform/ctxutil"
	"github.com/taibuivan/kotae/internal/platform/respond"
	"github.com/taibuivan/kotae/internal/session"
)

// # Navigation Constants

const (
	// PollInterval is the spacing of barrier polls.
	PollInterval = 100 * time.Millisecond

	// InitAttempts bounds the initialization barrier (100 × 100ms ≈ 10s).
	InitAttempts = 100

	// LoadAttempts bounds the loading barrier (50 × 100ms ≈ 5s).
	LoadAttempts = 50

	// DefaultTitle is used when a route declares no title of its own.
	DefaultTitle = "在线练习"

	// TitleSuffix is appended to every document title.
	TitleSuffix = "MT题库练习系统"

	// PathLogin and PathHome are the two redirect targets a decision can carry.
	PathLogin = "/login"
	PathHome  = "/"
)

// Route names with special-case handling for authenticated users.
const (
	RouteLogin    = "login"
	RouteRegister = "register"
)

// # Route Metadata

// Route is the metadata surface a navigation target declares.
//
// The zero value requires authentication: Public is inverted from the
// original requiresAuth flag precisely so that "auth required" is the
// default for any route that forgets to say otherwise.
type Route struct {
	Name          string
	Title         string
	Public        bool
	RequiresVIP   bool
	RequiresAdmin bool
}

// DocumentTitle resolves the full document title for the route.
func (r Route) DocumentTitle() string {
	title := r.Title
	if title == "" {
		title = DefaultTitle
	}
	return fmt.Sprintf("%s - %s", title, TitleSuffix)
}

// # Decisions

// Action is the verdict of one guarded navigation.
type Action int

const (
	// Allow lets the navigation proceed.
	Allow Action = iota
	// RedirectLogin sends the visitor to the login route.
	RedirectLogin
	// RedirectHome sends the visitor to the index route.
	RedirectHome
)

// Decision carries the verdict plus the resolved document title.
// A redirect decision is final for the navigation attempt: no further
// checks run after one is issued.
type Decision struct {
	Action Action
	Title  string
}

// # Guard

// Guard evaluates navigation policy against an injected auth store.
type Guard struct {
	logger *slog.Logger

	// pollInterval is overridable so barrier tests run in milliseconds.
	pollInterval time.Duration
}

// New constructs a [Guard].
func New(logger *slog.Logger) *Guard {
	return &Guard{logger: logger, pollInterval: PollInterval}
}

/*
Evaluate runs the guard algorithm for one navigation.

Parameters:
  - ctx: the navigation's context; cancellation aborts any barrier wait
  - store: the visitor's auth store
  - route: the metadata of the navigation target

Returns:
  - Decision: final verdict plus resolved document title
*/
func (g *Guard) Evaluate(ctx context.Context, store *session.Store, route Route) Decision {
	title := route.DocumentTitle()

	// ── 1. Public routes ──────────────────────────────────────────────────
	if route.Public {
		// An authenticated visitor has no business on the login/register
		// pages; bounce them home.
		if store.IsAuthenticated() && (route.Name == RouteLogin || route.Name == RouteRegister) {
			return Decision{Action: RedirectHome, Title: title}
		}
		return Decision{Action: Allow, Title: title}
	}

	// ── 2. Initialization barrier ─────────────────────────────────────────
	// The page-load probe may still be running. Wait for it, bounded; on
	// timeout we fall through with whatever state exists rather than hang.
	if !store.IsInitialized() {
		g.wait(ctx, InitAttempts, store.IsInitialized)
	}

	// ── 3. Authentication barrier ─────────────────────────────────────────
	if !store.IsAuthenticated() {

		// A login or probe may be mid-flight; give it a bounded chance.
		if store.IsLoading() {
			g.wait(ctx, LoadAttempts, func() bool { return !store.IsLoading() })
		}

		// Last resort: one explicit server probe. Its failure is swallowed —
		// an unreachable backend must degrade to a login redirect, not a
		// broken navigation.
		if !store.IsAuthenticated() && store.IsInitialized() {
			if !store.CheckAuth(ctx) {
				g.logger.WarnContext(ctx, "guard_auth_recheck_failed",
					slog.String("route", route.Name),
				)
			}
		}

		if !store.IsAuthenticated() {
			return Decision{Action: RedirectLogin, Title: title}
		}
	}

	// ── 4. Role gates ─────────────────────────────────────────────────────
	snapshot := store.Snapshot()

	if route.RequiresVIP && !accessLevel(snapshot).AtLeast(session.AccessVIP) {
		return Decision{Action: RedirectHome, Title: title}
	}

	if route.RequiresAdmin && accessLevel(snapshot) != session.AccessRoot {
		return Decision{Action: RedirectHome, Title: title}
	}

	return Decision{Action: Allow, Title: title}
}

// wait polls the condition every pollInterval up to attempts times.
// It returns early when the condition holds or the context is cancelled;
// on timeout the caller proceeds with the state it has.
func (g *Guard) wait(ctx context.Context, attempts int, done func() bool) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done() {
				return
			}
		}
	}
}

// accessLevel extracts the visitor's level; an absent user counts as NORMAL.
func accessLevel(snapshot session.Snapshot) session.AccessLevel {
	if snapshot.User == nil {
		return session.AccessNormal
	}
	return snapshot.User.Model
}

// # HTTP Adapter

// StoreProvider resolves the auth store for one request — in the shell,
// the per-browser store behind the session cookie. It receives the writer
// because first contact mints the cookie.
type StoreProvider func(http.ResponseWriter, *http.Request) (*session.Store, error)

// Middleware wraps a page handler with the guard for the given route.
//
// Allowed navigations proceed with the resolved document title in context;
// redirect decisions become 303 responses to the decision's target.
func (g *Guard) Middleware(stores StoreProvider, route Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			store, err := stores(writer, request)
			if err != nil {
				respond.Error(writer, request, apperr.Internal(err))
				return
			}

			decision := g.Evaluate(request.Context(), store, route)

			switch decision.Action {
			case RedirectLogin:
				respond.Redirect(writer, request, PathLogin)
			case RedirectHome:
				respond.Redirect(writer, request, PathHome)
			default:
				ctx := ctxutil.WithPageTitle(request.Context(), decision.Title)
				next.ServeHTTP(writer, request.WithContext(ctx))
			}
		})
	}
}
