// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"

	"github.com/taibuivan/kotae/internal/transport"
)

// # Wire Paths

const (
	pathRegister     = "/auth/register"
	pathLogin        = "/auth/login"
	pathLogout       = "/auth/logout"
	pathCheck        = "/auth/check"
	pathUserInfo     = "/auth/user"
	pathStatus       = "/auth/session/status"
	pathExtend       = "/auth/session/extend"
	pathWarningShown = "/auth/session/warning-shown"
)

// # Typed Payloads

// LoginPayload is the data of a successful login: the identity plus the
// freshly minted session lease.
type LoginPayload struct {
	User    User
	Session SessionInfo
}

// CheckPayload is the data of an auth probe.
type CheckPayload struct {
	Authenticated bool
	User          *User
}

// StatusPayload is the data of a session status or extension call.
type StatusPayload struct {
	Session SessionInfo
}

// UserPayload is the data of a profile lookup.
type UserPayload struct {
	User User
}

// # Client

// Client is the typed wrapper over the upstream auth endpoints.
//
// Pure request/response mapping with zero state: every method performs one
// HTTP call and folds the outcome into a [ServiceResponse]. All state
// handling lives in [Store].
type Client struct {
	http *transport.Client
}

// NewClient constructs a typed auth client on top of a credentialed transport.
func NewClient(http *transport.Client) *Client {
	return &Client{http: http}
}

/*
Register enrolls a new account using an invitation code.

Parameters:
  - ctx: context.Context
  - username, password, invitationCode: form fields, forwarded verbatim

Returns:
  - ServiceResponse[struct{}]: Success/Message only; registration returns no data
*/
func (c *Client) Register(ctx context.Context, username, password, invitationCode string) ServiceResponse[struct{}] {
	body := map[string]string{
		"username":        username,
		"password":        password,
		"invitation_code": invitationCode,
	}

	result := c.http.Post(ctx, pathRegister, body, nil)
	return ServiceResponse[struct{}]{
		Success: result.Success,
		Message: result.Message,
		Err:     result.Err,
	}
}

/*
Login authenticates against the upstream and returns the identity plus lease.

Returns:
  - ServiceResponse[LoginPayload]: Data present only when both the user and
    the session arrived in the response
*/
func (c *Client) Login(ctx context.Context, username, password string) ServiceResponse[LoginPayload] {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var wire struct {
		User    *User        `json:"user"`
		Session *SessionInfo `json:"session"`
	}

	result := c.http.Post(ctx, pathLogin, body, &wire)
	if result.Failed() {
		return failure[LoginPayload](result.Message, result.Err)
	}

	if wire.User == nil || wire.Session == nil {
		// A success envelope without both halves is unusable for state setup.
		return failure[LoginPayload]("登录失败", "login response missing user or session")
	}

	return ServiceResponse[LoginPayload]{
		Success: true,
		Message: result.Message,
		Data:    &LoginPayload{User: *wire.User, Session: *wire.Session},
	}
}

/*
Logout revokes the upstream session lease.

Best-effort by contract: the caller tears local state down regardless.
*/
func (c *Client) Logout(ctx context.Context) ServiceResponse[struct{}] {
	result := c.http.Post(ctx, pathLogout, nil, nil)
	return ServiceResponse[struct{}]{
		Success: result.Success,
		Message: result.Message,
		Err:     result.Err,
	}
}

/*
CheckAuth probes whether the upstream still recognizes the cookie lease.

Returns:
  - ServiceResponse[CheckPayload]: Data always present on success, carrying
    the authenticated flag and, if authenticated, the identity
*/
func (c *Client) CheckAuth(ctx context.Context) ServiceResponse[CheckPayload] {
	var wire struct {
		Authenticated bool  `json:"authenticated"`
		User          *User `json:"user"`
	}

	result := c.http.Get(ctx, pathCheck, &wire)
	if result.Failed() {
		return failure[CheckPayload](result.Message, result.Err)
	}

	return ServiceResponse[CheckPayload]{
		Success: true,
		Data:    &CheckPayload{Authenticated: wire.Authenticated, User: wire.User},
	}
}

/*
UserInfo fetches the full profile of the logged-in member.
*/
func (c *Client) UserInfo(ctx context.Context) ServiceResponse[UserPayload] {
	var wire struct {
		User *User `json:"user"`
	}

	result := c.http.Get(ctx, pathUserInfo, &wire)
	if result.Failed() || wire.User == nil {
		return failure[UserPayload](result.Message, result.Err)
	}

	return ServiceResponse[UserPayload]{Success: true, Data: &UserPayload{User: *wire.User}}
}

/*
SessionStatus fetches the current server-side lease state.
*/
func (c *Client) SessionStatus(ctx context.Context) ServiceResponse[StatusPayload] {
	return c.fetchSession(ctx, func(ctx context.Context, out any) transport.Result {
		return c.http.Get(ctx, pathStatus, out)
	})
}

/*
ExtendSession asks the upstream to renew the lease and returns the new state.
*/
func (c *Client) ExtendSession(ctx context.Context) ServiceResponse[StatusPayload] {
	return c.fetchSession(ctx, func(ctx context.Context, out any) transport.Result {
		return c.http.Post(ctx, pathExtend, nil, out)
	})
}

/*
MarkWarningShown records on the server that the expiry warning was displayed,
so it is not re-shown on the next status poll.
*/
func (c *Client) MarkWarningShown(ctx context.Context) ServiceResponse[struct{}] {
	result := c.http.Post(ctx, pathWarningShown, nil, nil)
	return ServiceResponse[struct{}]{
		Success: result.Success,
		Message: result.Message,
		Err:     result.Err,
	}
}

// fetchSession shares the decode path of the two session-lease endpoints.
func (c *Client) fetchSession(ctx context.Context, call func(context.Context, any) transport.Result) ServiceResponse[StatusPayload] {
	var wire struct {
		Session *SessionInfo `json:"session"`
	}

	result := call(ctx, &wire)
	if result.Failed() {
		return failure[StatusPayload](result.Message, result.Err)
	}

	if wire.Session == nil {
		return failure[StatusPayload]("会话状态缺失", "status response missing session")
	}

	return ServiceResponse[StatusPayload]{Success: true, Data: &StatusPayload{Session: *wire.Session}}
}
