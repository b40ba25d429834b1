// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// # Contracts & Types

// API defines the auth operations the store drives.
//
// # Why an interface?
//
// Defining API here decouples the store from the concrete [Client],
// allowing tests to inject scripted backends without a network.
type API interface {
	Register(ctx context.Context, username, password, invitationCode string) ServiceResponse[struct{}]
	Login(ctx context.Context, username, password string) ServiceResponse[LoginPayload]
	Logout(ctx context.Context) ServiceResponse[struct{}]
	CheckAuth(ctx context.Context) ServiceResponse[CheckPayload]
	UserInfo(ctx context.Context) ServiceResponse[UserPayload]
	SessionStatus(ctx context.Context) ServiceResponse[StatusPayload]
	ExtendSession(ctx context.Context) ServiceResponse[StatusPayload]
	MarkWarningShown(ctx context.Context) ServiceResponse[struct{}]
}

// Single-flight keys. Concurrent duplicate calls to the same logical
// operation collapse onto one in-flight request.
const (
	flightCheckAuth     = "check_auth"
	flightUserInfo      = "user_info"
	flightSessionStatus = "session_status"
	flightLogin         = "login:"
)

// Fallback display messages when the upstream gives none.
const (
	msgLoginFailed    = "登录失败"
	msgRegisterFailed = "注册失败"
	msgLogoutFailed   = "登出时发生错误"
)

// Store is the session/auth reconciliation engine.
//
// One Store corresponds to one browser identity and lives for that
// identity's lifetime. State is memory-only: it is rebuilt on every page
// load via [Store.CheckAuth], never persisted.
//
// # Ownership
//
// The store is a single-owner actor: every mutation goes through its
// action methods, and readers only ever see immutable [Snapshot] copies.
// The transport's 401 hook, the navigation guard, and the form handlers
// are all wired to the same instance by constructor injection — there is
// no ambient global.
type Store struct {
	api    API
	logger *slog.Logger

	mu     sync.Mutex
	flight singleflight.Group

	user          *User
	sessionInfo   *SessionInfo
	isLoading     bool
	isInitialized bool
	lastError     string
}

// NewStore constructs a [Store] over the given auth API.
func NewStore(api API, logger *slog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// # Read Side

// Snapshot is an immutable copy of the store state plus its derived views.
//
// Consumers (guard, handlers) work exclusively on snapshots; they can never
// reach the live fields.
type Snapshot struct {
	User          *User
	SessionInfo   *SessionInfo
	IsLoading     bool
	IsInitialized bool
	Error         string
}

// IsAuthenticated reports whether the local view counts as logged in:
// an identity is held, and the lease — if one is held at all — is live.
func (s Snapshot) IsAuthenticated() bool {
	if s.User == nil {
		return false
	}
	return s.SessionInfo == nil || s.SessionInfo.Live()
}

// Provisional reports whether authentication is optimistic: an identity is
// held but the session lease has not been confirmed yet. This makes the
// two-phase Authenticating→Authenticated progression observable instead of
// leaving consumers to infer it from a nil lease.
func (s Snapshot) Provisional() bool {
	return s.User != nil && s.SessionInfo == nil
}

// IsSessionExpiringSoon reports whether the lease crossed its warning
// threshold and the warning has not been shown yet.
func (s Snapshot) IsSessionExpiringSoon() bool {
	return s.SessionInfo != nil &&
		s.SessionInfo.WarningThresholdReached &&
		!s.SessionInfo.WarningShown
}

// SessionTimeRemainingText formats the lease's remaining time as "Nm Ms",
// or "N/A" when unknown.
func (s Snapshot) SessionTimeRemainingText() string {
	if s.SessionInfo == nil {
		return FormatRemaining(nil)
	}
	return FormatRemaining(s.SessionInfo.TimeRemaining)
}

// Snapshot returns an immutable copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		User:          copyUser(s.user),
		SessionInfo:   copySession(s.sessionInfo),
		IsLoading:     s.isLoading,
		IsInitialized: s.isInitialized,
		Error:         s.lastError,
	}
}

// IsAuthenticated is a shorthand over [Store.Snapshot].
func (s *Store) IsAuthenticated() bool { return s.Snapshot().IsAuthenticated() }

// IsInitialized reports whether the first auth probe has completed.
func (s *Store) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isInitialized
}

// IsLoading reports whether an auth operation is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// Err returns the last recorded failure message, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearError discards the last recorded failure message.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

// # State Setting

// setAuthStateLocked replaces both identity and lease as a pair.
//
// Pairing invariant: if the identity is absent, or the provided lease is
// present but dead, BOTH fields are forced to nil — even when the caller
// passed inconsistent partial data. This is the single place user and
// sessionInfo are ever written.
//
// Callers must hold s.mu.
func (s *Store) setAuthStateLocked(user *User, info *SessionInfo) {
	s.user = user
	s.sessionInfo = info

	if user == nil || (info != nil && !info.Live()) {
		s.user = nil
		s.sessionInfo = nil
	}
}

// # Actions

/*
CheckAuth probes the upstream for an existing session lease.

Description: The page-load reconciliation step. On a positive probe the
identity is set optimistically (lease nil → provisional) and lease
confirmation runs as a detached background refinement whose failure never
reverts authentication. Any other outcome clears the state.

Concurrent callers collapse onto one in-flight probe.

Returns:
  - bool: whether the store ended up authenticated

The store is always initialized when this returns, regardless of outcome.
*/
func (s *Store) CheckAuth(ctx context.Context) bool {
	result, _, _ := s.flight.Do(flightCheckAuth, func() (any, error) {
		s.setLoading(true)
		defer func() {
			s.mu.Lock()
			s.isLoading = false
			// Exactly-once initialization per page load, success or not.
			s.isInitialized = true
			s.mu.Unlock()
		}()

		response := s.api.CheckAuth(ctx)
		if response.Success && response.Data != nil && response.Data.Authenticated && response.Data.User != nil {
			user := *response.Data.User

			s.mu.Lock()
			s.setAuthStateLocked(&user, nil)
			s.mu.Unlock()

			// Background lease refinement, detached from the caller's
			// lifetime so navigation teardown cannot orphan it mid-write.
			refineCtx := context.WithoutCancel(ctx)
			go s.FetchSessionStatus(refineCtx, &user)

			return true, nil
		}

		if !response.Success {
			s.logger.DebugContext(ctx, "auth_check_failed", slog.String("error", response.Err))
		}

		s.mu.Lock()
		s.setAuthStateLocked(nil, nil)
		s.mu.Unlock()
		return false, nil
	})

	authenticated, _ := result.(bool)
	return authenticated
}

/*
Login authenticates with the given credentials.

Description: On success both identity and lease are installed atomically
and the store counts as initialized (a fresh login substitutes for the
page-load probe). On failure the state is cleared and the cleaned server
message is recorded for the form to display.

Concurrent duplicate submissions for the same username share one attempt.

Returns:
  - bool: whether login succeeded
*/
func (s *Store) Login(ctx context.Context, username, password string) bool {
	result, _, _ := s.flight.Do(flightLogin+username, func() (any, error) {
		s.setLoading(true)
		s.ClearError()
		defer s.setLoading(false)

		response := s.api.Login(ctx, username, password)
		if response.Success && response.Data != nil {
			user := response.Data.User
			info := response.Data.Session

			s.mu.Lock()
			s.setAuthStateLocked(&user, &info)
			s.isInitialized = true
			s.mu.Unlock()
			return true, nil
		}

		s.mu.Lock()
		s.setAuthStateLocked(nil, nil)
		s.lastError = messageOrDefault(response.Message, msgLoginFailed)
		s.mu.Unlock()
		return false, nil
	})

	ok, _ := result.(bool)
	return ok
}

/*
Register enrolls a new account using an invitation code.

Description: Pure pass-through with error capture; a successful
registration does NOT log the user in.

Returns:
  - bool: whether registration succeeded
*/
func (s *Store) Register(ctx context.Context, username, password, invitationCode string) bool {
	s.setLoading(true)
	s.ClearError()
	defer s.setLoading(false)

	response := s.api.Register(ctx, username, password, invitationCode)
	if response.Success {
		return true
	}

	s.mu.Lock()
	s.lastError = messageOrDefault(response.Message, msgRegisterFailed)
	s.mu.Unlock()
	return false
}

/*
Logout revokes the lease upstream and tears local state down.

Description: The remote call is best-effort — its failure is recorded but
never blocks the local cleanup. Afterwards the store is de-initialized, so
the next page load probes from scratch.
*/
func (s *Store) Logout(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	response := s.api.Logout(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setAuthStateLocked(nil, nil)
	s.isInitialized = false
	if !response.Success {
		s.lastError = messageOrDefault(response.Message, msgLogoutFailed)
	} else {
		s.lastError = ""
	}
}

/*
FetchSessionStatus refreshes the lease from the upstream and reconciles it
against the given identity.

Reconciliation rules:
  - Lease dead (unauthenticated or invalid): clear both fields, whatever
    identity the caller held.
  - Lease user matches currentUser: keep the richer currentUser object.
  - Lease references a different/unknown user: synthesize a minimal
    identity from the lease (model NORMAL).
  - Call failed: keep currentUser untouched and record the error — a flaky
    status poll must not punish the user with a logout.

Concurrent callers collapse onto one in-flight poll.
*/
func (s *Store) FetchSessionStatus(ctx context.Context, currentUser *User) {
	_, _, _ = s.flight.Do(flightSessionStatus, func() (any, error) {
		response := s.api.SessionStatus(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()

		if !response.Success || response.Data == nil {
			// Flaky status poll: leave the current identity untouched —
			// never force a logout here — but record the failure.
			s.lastError = response.Message
			s.logger.DebugContext(ctx, "session_status_failed", slog.String("error", response.Err))
			return nil, nil
		}

		info := response.Data.Session
		if !info.Live() {
			s.setAuthStateLocked(nil, nil)
			return nil, nil
		}

		s.setAuthStateLocked(reconcileUser(currentUser, &info), &info)
		return nil, nil
	})
}

/*
RefreshUserInfo re-fetches the identity from the upstream and replaces the
local copy, leaving the lease untouched.

Description: Used after a profile edit so a renamed account is reflected
without a re-login. A store holding no identity is left alone — refreshing
an absent user would fabricate the user/lease pairing. On failure the
identity is kept and the error recorded; a flaky profile poll must not
log anyone out.

Concurrent callers collapse onto one in-flight fetch.

Returns:
  - bool: whether the identity was replaced
*/
func (s *Store) RefreshUserInfo(ctx context.Context) bool {
	result, _, _ := s.flight.Do(flightUserInfo, func() (any, error) {
		s.setLoading(true)
		defer s.setLoading(false)

		response := s.api.UserInfo(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()

		if !response.Success || response.Data == nil {
			s.lastError = response.Message
			s.logger.DebugContext(ctx, "user_info_refresh_failed", slog.String("error", response.Err))
			return false, nil
		}

		if s.user == nil {
			return false, nil
		}

		user := response.Data.User
		s.setAuthStateLocked(&user, s.sessionInfo)
		return true, nil
	})

	refreshed, _ := result.(bool)
	return refreshed
}

/*
ExtendUserSession renews the lease.

Description: On success only the lease half of the state is refreshed; the
identity stays as-is. On failure a full status fetch reconciles whatever
the server now believes.

Returns:
  - bool: whether the extension succeeded
*/
func (s *Store) ExtendUserSession(ctx context.Context) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	response := s.api.ExtendSession(ctx)
	if response.Success && response.Data != nil {
		info := response.Data.Session

		s.mu.Lock()
		s.setAuthStateLocked(s.user, &info)
		s.mu.Unlock()
		return true
	}

	s.mu.Lock()
	user := copyUser(s.user)
	s.mu.Unlock()

	s.FetchSessionStatus(ctx, user)
	return false
}

/*
MarkSessionWarningAsShown records the expiry warning as displayed.

Best-effort: on success the local lease is patched so the warning is not
re-raised; on failure nothing changes.
*/
func (s *Store) MarkSessionWarningAsShown(ctx context.Context) {
	response := s.api.MarkWarningShown(ctx)
	if !response.Success {
		s.logger.DebugContext(ctx, "mark_warning_shown_failed", slog.String("error", response.Err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionInfo != nil {
		patched := *s.sessionInfo
		patched.WarningShown = true
		s.sessionInfo = &patched
	}
}

/*
HandleAuthFailure is the synchronous emergency reset fired by the
transport's 401 side channel.

It evicts the identity, the lease, the error, and the loading flag
immediately, independent of any in-flight action's lifecycle, so a dead
lease discovered by an unrelated API call cannot linger. Initialization
status is preserved: the page load already happened.
*/
func (s *Store) HandleAuthFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setAuthStateLocked(nil, nil)
	s.lastError = ""
	s.isLoading = false
}

// # Internals

// setLoading toggles the loading flag. Each action brackets the flag
// independently; single-flight keeps duplicate operations from producing
// overlapping brackets for the same logical call.
func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}

// reconcileUser picks the identity to keep for a live lease: the richer
// known user when the IDs agree, otherwise a minimal synthesized one.
func reconcileUser(currentUser *User, info *SessionInfo) *User {
	if currentUser != nil && info.UserID != nil && currentUser.UserID == *info.UserID {
		return copyUser(currentUser)
	}

	synthesized := &User{Model: AccessNormal}
	if info.UserID != nil {
		synthesized.UserID = *info.UserID
	}
	if info.Username != nil {
		synthesized.Username = *info.Username
	}
	return synthesized
}

// messageOrDefault returns message, or fallback when it is empty.
func messageOrDefault(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

// copyUser returns a value copy, or nil.
func copyUser(user *User) *User {
	if user == nil {
		return nil
	}
	clone := *user
	return &clone
}

// copySession returns a value copy, or nil.
func copySession(info *SessionInfo) *SessionInfo {
	if info == nil {
		return nil
	}
	clone := *info
	return &clone
}
