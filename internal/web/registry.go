// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package web is the delivery shell: it exposes the auth, practice, and admin
surfaces over HTTP and owns the per-browser state that backs them.

# Browser Sessions

Every browser is identified by an opaque cookie and owns one [Browser]
bundle: a credentialed transport (whose cookie jar holds the upstream
lease), the auth store reconciling identity state, and the typed practice
and admin clients sharing that transport. Two browsers never share state;
one browser's 401 never logs out another.
*/
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/kotae/internal/admin"
	"github.com/taibuivan/kotae/internal/platform/config"
	"github.com/taibuivan/kotae/internal/platform/constants"
	"github.com/taibuivan/kotae/internal/profile"
	"github.com/taibuivan/kotae/internal/quiz"
	"github.com/taibuivan/kotae/internal/session"
	"github.com/taibuivan/kotae/internal/transport"
)

// sweepInterval is how often idle browser sessions are evicted.
const sweepInterval = 10 * time.Minute

// # Browser Bundle

// Browser is the complete state of one browser session.
type Browser struct {
	// Store is the browser's auth store.
	Store *session.Store

	// Quiz, Profile, and Admin are the typed upstream clients sharing
	// the browser's transport, and therefore its upstream lease.
	Quiz    *quiz.Client
	Profile *profile.Client
	Admin   *admin.Client

	lastSeen time.Time
}

// # Registry

// Registry maps browser-session cookies to their [Browser] bundles.
//
// # Concurrency
//
// Safe for concurrent use. Bundles are created on first sight of a cookie
// and evicted after sitting idle for the configured TTL; eviction only
// drops local state — the upstream lease, if any, expires on its own.
type Registry struct {
	cfg    *config.Config
	logger *slog.Logger

	mu       sync.Mutex
	browsers map[string]*Browser
}

// NewRegistry constructs an empty [Registry].
func NewRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		browsers: make(map[string]*Browser),
	}
}

/*
Resolve returns the [Browser] bundle for the request's session cookie,
minting both the cookie and the bundle on first sight.

Parameters:
  - writer: used to set the session cookie when a new one is minted
  - request: carries the existing cookie, if any

Returns:
  - *Browser: the request's bundle, never nil
  - error: only when constructing a fresh transport fails
*/
func (r *Registry) Resolve(writer http.ResponseWriter, request *http.Request) (*Browser, error) {
	key := ""
	if cookie, err := request.Cookie(constants.BrowserSessionCookieName); err == nil {
		key = cookie.Value
	}

	// Unknown or absent cookie: mint a fresh identity. UUIDv7 keeps the
	// registry's keys time-sortable, which makes sweep logs readable.
	if key == "" || !r.known(key) {
		key = uuid.Must(uuid.NewV7()).String()
		http.SetCookie(writer, &http.Cookie{
			Name:     constants.BrowserSessionCookieName,
			Value:    key,
			Path:     constants.BrowserSessionCookiePath,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(r.cfg.BrowserSessionTTL.Seconds()),
		})
	}

	return r.lookup(key)
}

// known reports whether a bundle already exists for the key.
func (r *Registry) known(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.browsers[key]
	return ok
}

// lookup returns the bundle for the key, building it if needed.
func (r *Registry) lookup(key string) (*Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if browser, ok := r.browsers[key]; ok {
		browser.lastSeen = time.Now()
		return browser, nil
	}

	httpClient, err := transport.New(r.cfg.UpstreamBaseURL, r.cfg.UpstreamTimeout, r.logger)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(session.NewClient(httpClient), r.logger)

	// Any 401 from any call through this transport — auth, practice, or
	// admin — resets this browser's auth state, and only this browser's.
	httpClient.OnAuthExpired(store.HandleAuthFailure)

	browser := &Browser{
		Store:    store,
		Quiz:     quiz.NewClient(httpClient),
		Profile:  profile.NewClient(httpClient),
		Admin:    admin.NewClient(httpClient),
		lastSeen: time.Now(),
	}
	r.browsers[key] = browser

	r.logger.Debug("browser_session_created", slog.String("key", key))
	return browser, nil
}

// StartSweeper launches the background eviction loop. It stops when the
// context is cancelled.
func (r *Registry) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
}

// sweep evicts bundles idle past the TTL.
func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.cfg.BrowserSessionTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, browser := range r.browsers {
		if browser.lastSeen.Before(cutoff) {
			delete(r.browsers, key)
			r.logger.Debug("browser_session_evicted", slog.String("key", key))
		}
	}
}
