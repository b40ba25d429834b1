// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements identity and session-lease state for the client tier.

It defines the core domain entities (User, AccessLevel, SessionInfo), the typed
client for the upstream auth endpoints, and the [Store] — the reconciliation
engine that turns asynchronous endpoint results into one consistent local view
of "who is logged in".

# Architecture

This layer is the "Truth" of the client tier. The upstream backend owns the
session lease; this package owns the local mirror of it and the rules for
reconciling the two when they disagree.
*/
package session

import (
	"fmt"
	"time"
)

// # Access Levels

// AccessLevel is the ordinal role gating route visibility.
//
// The values are fixed by the upstream contract: higher values imply at
// least the privileges of lower ones for VIP-gated routes, while
// root-gated routes accept only [AccessRoot].
type AccessLevel int

const (
	// AccessNormal is a regular member.
	AccessNormal AccessLevel = 0
	// AccessVIP unlocks the VIP study features.
	AccessVIP AccessLevel = 5
	// AccessRoot is the administrator level.
	AccessRoot AccessLevel = 10
)

// Valid reports whether the level is one of the three defined values.
func (l AccessLevel) Valid() bool {
	return l == AccessNormal || l == AccessVIP || l == AccessRoot
}

// AtLeast reports whether the level meets or exceeds the target level.
func (l AccessLevel) AtLeast(target AccessLevel) bool {
	return l >= target
}

// String returns the display name of the level.
func (l AccessLevel) String() string {
	switch l {
	case AccessVIP:
		return "VIP用户"
	case AccessRoot:
		return "管理员"
	default:
		return "普通用户"
	}
}

// # Domain Entities

// User is the locally cached identity of the logged-in member.
//
// It is replaced wholesale on login/check and cleared on logout or failure;
// individual fields are never mutated in place.
type User struct {
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username"`
	IsEnabled *bool       `json:"is_enabled,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	Model     AccessLevel `json:"model"`
}

// SessionInfo mirrors the server-side session lease.
//
// It may be absent (nil) even while a [User] is held: that state means
// "provisionally authenticated, lease not yet confirmed". It is only ever
// constructed from session endpoint responses, except for the minimal user
// synthesized when a lease references a user this tier does not know.
type SessionInfo struct {
	SessionID               string     `json:"session_id,omitempty"`
	UserID                  *int64     `json:"user_id"`
	Username                *string    `json:"username"`
	IsAuthenticated         bool       `json:"is_authenticated"`
	SessionValid            bool       `json:"session_valid"`
	ExpiresAt               *time.Time `json:"expires_at"`
	TimeRemaining           *int64     `json:"time_remaining"`
	WarningThresholdReached bool       `json:"warning_threshold_reached,omitempty"`
	WarningShown            bool       `json:"warning_shown,omitempty"`
}

// Live reports whether the lease both authenticates and is still valid.
func (s *SessionInfo) Live() bool {
	return s != nil && s.IsAuthenticated && s.SessionValid
}

// # Service Envelope

// ServiceResponse is the normalized outcome of one typed auth operation.
//
// No operation in this package raises: failures are encoded here, with
// Message cleaned of any "NNN StatusText: " prefix and Err reserved for
// transport-level detail.
type ServiceResponse[T any] struct {
	Success bool
	Message string
	Data    *T
	Err     string
}

// failure builds a failed response from a message and detail pair.
func failure[T any](message, detail string) ServiceResponse[T] {
	return ServiceResponse[T]{Success: false, Message: message, Err: detail}
}

// # Formatting

// FormatRemaining renders a number of seconds as "Nm Ms", or "N/A" when
// the duration is unknown.
func FormatRemaining(seconds *int64) string {
	if seconds == nil {
		return "N/A"
	}

	total := *seconds
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
