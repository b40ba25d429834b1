// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kotae/internal/platform/config"
	"github.com/taibuivan/kotae/internal/platform/constants"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	cfg := &config.Config{
		UpstreamBaseURL:   "http://127.0.0.1:1",
		UpstreamTimeout:   time.Second,
		BrowserSessionTTL: time.Hour,
	}
	return NewRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.BrowserSessionCookieName {
			return cookie
		}
	}
	t.Fatalf("no %s cookie set", constants.BrowserSessionCookieName)
	return nil
}

func TestResolve_MintsCookieOnFirstSight(t *testing.T) {
	registry := testRegistry(t)

	recorder := httptest.NewRecorder()
	browser, err := registry.Resolve(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotNil(t, browser)
	require.NotNil(t, browser.Store)
	require.NotNil(t, browser.Quiz)
	require.NotNil(t, browser.Admin)

	cookie := sessionCookie(t, recorder)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, constants.BrowserSessionCookiePath, cookie.Path)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
}

func TestResolve_ReturnsSameBundleForSameCookie(t *testing.T) {
	registry := testRegistry(t)

	recorder := httptest.NewRecorder()
	first, err := registry.Resolve(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(sessionCookie(t, recorder))

	again := httptest.NewRecorder()
	second, err := registry.Resolve(again, request)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Empty(t, again.Result().Cookies(), "known cookie must not be re-minted")
}

func TestResolve_UnknownCookieGetsFreshIdentity(t *testing.T) {
	registry := testRegistry(t)

	// A cookie the registry has never seen, e.g. one that survived a
	// process restart. The stale value must not be trusted.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.BrowserSessionCookieName, Value: "stale-key"})

	recorder := httptest.NewRecorder()
	_, err := registry.Resolve(recorder, request)
	require.NoError(t, err)

	cookie := sessionCookie(t, recorder)
	assert.NotEqual(t, "stale-key", cookie.Value)
}

func TestResolve_DistinctBrowsersGetDistinctBundles(t *testing.T) {
	registry := testRegistry(t)

	first, err := registry.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	second, err := registry.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.NotSame(t, first.Store, second.Store)
}

func TestSweep_EvictsOnlyIdleBundles(t *testing.T) {
	registry := testRegistry(t)

	idle, err := registry.lookup("idle")
	require.NoError(t, err)
	_, err = registry.lookup("active")
	require.NoError(t, err)

	idle.lastSeen = time.Now().Add(-2 * time.Hour)
	registry.sweep()

	assert.False(t, registry.known("idle"))
	assert.True(t, registry.known("active"))
}
