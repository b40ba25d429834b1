// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package profile wraps the upstream account-profile endpoints: detailed
// info lookup, profile edits, and password changes.
package profile

import (
	"context"
	"net/http"

	"github.com/taibuivan/kotae/internal/platform/apperr"
	"github.com/taibuivan/kotae/internal/transport"
)

// # Wire Paths

const (
	pathInfo     = "/api/profile/info"
	pathPassword = "/api/profile/password"
)

// Client is the typed wrapper over the upstream profile endpoints.
type Client struct {
	http *transport.Client
}

// NewClient constructs a profile client on top of a credentialed transport.
func NewClient(http *transport.Client) *Client {
	return &Client{http: http}
}

/*
Info fetches the member's detailed account record.

Returns:
  - Profile: the full record, including the optional student fields
  - error: [apperr.AppError]; a 404 means the account vanished upstream
*/
func (c *Client) Info(ctx context.Context) (Profile, error) {
	var response struct {
		User Profile `json:"user"`
	}

	result := c.http.Get(ctx, pathInfo, &response)
	if result.Status == http.StatusNotFound {
		return Profile{}, apperr.NotFound("User profile")
	}
	if err := result.AsError(); err != nil {
		return Profile{}, err
	}
	return response.User, nil
}

/*
Save applies a profile edit and returns the outcome notice.

The upstream validates field lengths and username uniqueness; refusals
("用户名已被占用" and friends) come back as server errors carrying the
upstream message.
*/
func (c *Client) Save(ctx context.Context, update Update) (string, error) {
	result := c.http.Put(ctx, pathInfo, update, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// ChangePassword rotates the account password. The upstream re-verifies the
// current password and the confirmation match before applying.
func (c *Client) ChangePassword(ctx context.Context, current, fresh, confirm string) (string, error) {
	body := map[string]string{
		"currentPassword": current,
		"newPassword":     fresh,
		"confirmPassword": confirm,
	}

	result := c.http.Put(ctx, pathPassword, body, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}
