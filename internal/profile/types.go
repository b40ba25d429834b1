// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import "github.com/taibuivan/kotae/internal/session"

// Profile is the member's detailed account record, extending the auth
// identity with the optional student fields.
type Profile struct {
	ID            int64               `json:"id"`
	Username      string              `json:"username"`
	Email         *string             `json:"email"`
	StudentID     *string             `json:"student_id"`
	Major         *string             `json:"major"`
	Grade         *int                `json:"grade"`
	IsEnabled     bool                `json:"is_enabled"`
	CreatedAt     *string             `json:"created_at"`
	LastTimeLogin *string             `json:"last_time_login"`
	Model         session.AccessLevel `json:"model"`
}

// Update carries the fields of a profile edit. Nil fields are omitted from
// the request entirely, so the upstream only touches what was provided.
type Update struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	StudentID *string `json:"student_id,omitempty"`
	Major     *string `json:"major,omitempty"`
	Grade     *int    `json:"grade,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u Update) Empty() bool {
	return u.Username == nil && u.Email == nil && u.StudentID == nil &&
		u.Major == nil && u.Grade == nil
}
