// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kotae/internal/guard"
	"github.com/taibuivan/kotae/internal/session"
)

// fakeAuth is the minimal scripted backend behind a real store: only the
// probe and login responses matter to the guard.
type fakeAuth struct {
	check session.ServiceResponse[session.CheckPayload]
	login session.ServiceResponse[session.LoginPayload]

	checkCalls atomic.Int32
}

func (f *fakeAuth) Register(ctx context.Context, username, password, invitationCode string) session.ServiceResponse[struct{}] {
	return session.ServiceResponse[struct{}]{}
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) session.ServiceResponse[session.LoginPayload] {
	return f.login
}

func (f *fakeAuth) Logout(ctx context.Context) session.ServiceResponse[struct{}] {
	return session.ServiceResponse[struct{}]{}
}

func (f *fakeAuth) CheckAuth(ctx context.Context) session.ServiceResponse[session.CheckPayload] {
	f.checkCalls.Add(1)
	return f.check
}

func (f *fakeAuth) UserInfo(ctx context.Context) session.ServiceResponse[session.UserPayload] {
	return session.ServiceResponse[session.UserPayload]{}
}

func (f *fakeAuth) SessionStatus(ctx context.Context) session.ServiceResponse[session.StatusPayload] {
	return session.ServiceResponse[session.StatusPayload]{}
}

func (f *fakeAuth) ExtendSession(ctx context.Context) session.ServiceResponse[session.StatusPayload] {
	return session.ServiceResponse[session.StatusPayload]{}
}

func (f *fakeAuth) MarkWarningShown(ctx context.Context) session.ServiceResponse[struct{}] {
	return session.ServiceResponse[struct{}]{}
}

// # Fixtures

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastGuard() *guard.Guard {
	g := guard.New(testLogger())
	g.SetPollInterval(time.Millisecond)
	return g
}

// loggedInStore builds a store holding a live identity at the given level.
func loggedInStore(t *testing.T, level session.AccessLevel) *session.Store {
	t.Helper()

	userID := int64(7)
	username := "tester"
	api := &fakeAuth{
		login: session.ServiceResponse[session.LoginPayload]{
			Success: true,
			Data: &session.LoginPayload{
				User: session.User{UserID: userID, Username: username, Model: level},
				Session: session.SessionInfo{
					UserID:          &userID,
					Username:        &username,
					IsAuthenticated: true,
					SessionValid:    true,
				},
			},
		},
	}

	store := session.NewStore(api, testLogger())
	require.True(t, store.Login(context.Background(), username, "secret"))
	return store
}

// emptyStore builds an initialized store with no identity.
func emptyStore() *session.Store {
	api := &fakeAuth{check: session.ServiceResponse[session.CheckPayload]{Success: false}}
	store := session.NewStore(api, testLogger())
	store.CheckAuth(context.Background())
	return store
}

// # Titles

func TestRoute_DocumentTitle(t *testing.T) {
	assert.Equal(t, "系统管理 - MT题库练习系统", guard.Route{Title: "系统管理"}.DocumentTitle())
	assert.Equal(t, "在线练习 - MT题库练习系统", guard.Route{}.DocumentTitle())
}

// # Public Routes

func TestEvaluate_PublicRoute_AllowsAnonymous(t *testing.T) {
	decision := fastGuard().Evaluate(context.Background(), emptyStore(),
		guard.Route{Name: "login", Title: "登录", Public: true})

	assert.Equal(t, guard.Allow, decision.Action)
	assert.Equal(t, "登录 - MT题库练习系统", decision.Title)
}

func TestEvaluate_LoginRoute_BouncesAuthenticatedHome(t *testing.T) {
	store := loggedInStore(t, session.AccessNormal)

	for _, name := range []string{"login", "register"} {
		decision := fastGuard().Evaluate(context.Background(), store,
			guard.Route{Name: name, Public: true})
		assert.Equal(t, guard.RedirectHome, decision.Action, name)
	}
}

func TestEvaluate_PublicNonAuthRoute_AllowsAuthenticated(t *testing.T) {
	decision := fastGuard().Evaluate(context.Background(), loggedInStore(t, session.AccessNormal),
		guard.Route{Name: "notFound", Title: "页面未找到", Public: true})

	assert.Equal(t, guard.Allow, decision.Action)
}

// # Barriers

func TestEvaluate_WaitsForInitialization(t *testing.T) {
	userID := int64(7)
	api := &fakeAuth{
		check: session.ServiceResponse[session.CheckPayload]{
			Success: true,
			Data: &session.CheckPayload{
				Authenticated: true,
				User:          &session.User{UserID: userID, Username: "tester"},
			},
		},
	}
	store := session.NewStore(api, testLogger())

	// The page-load probe lands while the guard is sitting on the barrier.
	go func() {
		time.Sleep(20 * time.Millisecond)
		store.CheckAuth(context.Background())
	}()

	decision := fastGuard().Evaluate(context.Background(), store, guard.Route{Name: "index"})
	assert.Equal(t, guard.Allow, decision.Action)
}

func TestEvaluate_InitBarrierTimeout_RedirectsLogin(t *testing.T) {
	// The probe never runs; after the bounded wait the guard gives up.
	api := &fakeAuth{}
	store := session.NewStore(api, testLogger())

	decision := fastGuard().Evaluate(context.Background(), store, guard.Route{Name: "index"})

	assert.Equal(t, guard.RedirectLogin, decision.Action)
	// The last-resort probe is reserved for initialized stores.
	assert.Equal(t, int32(0), api.checkCalls.Load())
}

func TestEvaluate_CancelledContext_AbortsBarrierWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := guard.New(testLogger()) // full 100ms polls; cancellation must not wait for them
	store := session.NewStore(&fakeAuth{}, testLogger())

	start := time.Now()
	decision := g.Evaluate(ctx, store, guard.Route{Name: "index"})

	assert.Equal(t, guard.RedirectLogin, decision.Action)
	assert.Less(t, time.Since(start), time.Second)
}

// # Authentication

func TestEvaluate_Unauthenticated_RunsLastResortProbe(t *testing.T) {
	api := &fakeAuth{check: session.ServiceResponse[session.CheckPayload]{Success: false}}
	store := session.NewStore(api, testLogger())
	store.CheckAuth(context.Background())

	decision := fastGuard().Evaluate(context.Background(), store, guard.Route{Name: "index"})

	assert.Equal(t, guard.RedirectLogin, decision.Action)
	// Page-load probe plus the guard's one last-resort re-probe.
	assert.Equal(t, int32(2), api.checkCalls.Load())
}

func TestEvaluate_LastResortProbeRecovers(t *testing.T) {
	// First probe fails (store initialized, unauthenticated); the guard's
	// own re-probe succeeds and the navigation goes through.
	userID := int64(7)
	api := &fakeAuth{check: session.ServiceResponse[session.CheckPayload]{Success: false}}
	store := session.NewStore(api, testLogger())
	store.CheckAuth(context.Background())

	api.check = session.ServiceResponse[session.CheckPayload]{
		Success: true,
		Data: &session.CheckPayload{
			Authenticated: true,
			User:          &session.User{UserID: userID, Username: "tester"},
		},
	}

	decision := fastGuard().Evaluate(context.Background(), store, guard.Route{Name: "index"})
	assert.Equal(t, guard.Allow, decision.Action)
}

// # Role Gates

func TestEvaluate_VIPGate(t *testing.T) {
	tests := []struct {
		name     string
		level    session.AccessLevel
		expected guard.Action
	}{
		{"normal_refused", session.AccessNormal, guard.RedirectHome},
		{"vip_allowed", session.AccessVIP, guard.Allow},
		{"root_allowed", session.AccessRoot, guard.Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := fastGuard().Evaluate(context.Background(), loggedInStore(t, tt.level),
				guard.Route{Name: "vip-stats", Title: "学习统计", RequiresVIP: true})
			assert.Equal(t, tt.expected, decision.Action)
		})
	}
}

func TestEvaluate_AdminGate_AcceptsOnlyRoot(t *testing.T) {
	tests := []struct {
		name     string
		level    session.AccessLevel
		expected guard.Action
	}{
		{"normal_refused", session.AccessNormal, guard.RedirectHome},
		{"vip_refused", session.AccessVIP, guard.RedirectHome},
		{"root_allowed", session.AccessRoot, guard.Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := fastGuard().Evaluate(context.Background(), loggedInStore(t, tt.level),
				guard.Route{Name: "admin", Title: "系统管理", RequiresAdmin: true})
			assert.Equal(t, tt.expected, decision.Action)
		})
	}
}
