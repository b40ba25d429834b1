// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin provides the typed client for the administration API.

Everything here requires a ROOT session upstream; the client itself does no
gatekeeping — the route guard refuses non-admin navigations long before a
call is made, and a stale lease surfaces as a 401 through the transport's
auth-expiry hook.
*/
package admin

import "github.com/taibuivan/kotae/internal/session"

// # Dashboard

// UserCounts aggregates the account figures of the stats dashboard.
type UserCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Admins int `json:"admins"`
	VIPs   int `json:"vips"`
}

// InvitationCounts aggregates invitation-code figures.
type InvitationCounts struct {
	Total  int `json:"total"`
	Unused int `json:"unused"`
	Used   int `json:"used"`
}

// ContentCounts aggregates question-bank figures.
type ContentCounts struct {
	TotalQuestions int `json:"total_questions"`
	TotalFiles     int `json:"total_files"`
}

// Stats is the admin dashboard payload.
type Stats struct {
	Users       UserCounts       `json:"users"`
	Invitations InvitationCounts `json:"invitations"`
	Subjects    ContentCounts    `json:"subjects"`
}

// # Accounts

// User is the admin view of one account, richer than the practice-side
// identity: it carries audit fields and the consumed invitation code.
type User struct {
	ID             int64               `json:"id"`
	Username       string              `json:"username"`
	IsEnabled      bool                `json:"is_enabled"`
	CreatedAt      string              `json:"created_at,omitempty"`
	LastTimeLogin  string              `json:"last_time_login,omitempty"`
	Model          session.AccessLevel `json:"model"`
	InvitationCode string              `json:"invitation_code,omitempty"`
}

// UserList is a page of accounts.
type UserList struct {
	Users      []User `json:"users"`
	Pagination Page   `json:"pagination"`
}

// Page is the upstream's page-based list metadata.
type Page struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// ListQuery narrows and orders a list endpoint. Zero values are omitted so
// the upstream's own defaults apply.
type ListQuery struct {
	Search   string
	OrderBy  string
	OrderDir string
	Page     int
	PerPage  int
}

// # Invitations

// Invitation is one registration invitation code.
type Invitation struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	IsUsed         bool   `json:"is_used"`
	CreatedAt      string `json:"created_at,omitempty"`
	ExpiresAt      string `json:"expires_at,omitempty"`
	UsedByUsername string `json:"used_by_username,omitempty"`
}

// # Subjects and Question Banks

// Subject is one subject grouping question banks.
type Subject struct {
	SubjectID     int64   `json:"subject_id"`
	SubjectName   string  `json:"subject_name"`
	ExamTime      *string `json:"exam_time,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
	QuestionCount int     `json:"question_count,omitempty"`
	TikuCount     int     `json:"tiku_count,omitempty"`
}

// Tiku is one question-bank file registered under a subject.
type Tiku struct {
	TikuID       int64  `json:"tiku_id"`
	SubjectID    int64  `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	TikuName     string `json:"tiku_name"`
	TikuPosition string `json:"tiku_position"`
	TikuNums     int    `json:"tiku_nums"`
	FileSize     int64  `json:"file_size,omitempty"`
	FileHash     string `json:"file_hash,omitempty"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// # Question Maintenance

// Question is the maintenance view of one item.
type Question struct {
	ID               string            `json:"id"`
	TikuID           int64             `json:"tiku_id"`
	QuestionType     string            `json:"question_type"`
	Stem             string            `json:"stem"`
	Options          map[string]string `json:"options,omitempty"`
	Answer           string            `json:"answer"`
	Explanation      string            `json:"explanation,omitempty"`
	Difficulty       int               `json:"difficulty,omitempty"`
	Status           string            `json:"status,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
	SubjectName      string            `json:"subject_name,omitempty"`
	TikuName         string            `json:"tiku_name,omitempty"`
	IsMultipleChoice bool              `json:"is_multiple_choice,omitempty"`
}

// QuestionList is a page of questions.
type QuestionList struct {
	Questions  []Question `json:"questions"`
	Pagination Page       `json:"pagination"`
}

// QuestionStats aggregates item counts per type and per bank.
type QuestionStats struct {
	Total   int            `json:"total"`
	ByType  map[string]int `json:"by_type,omitempty"`
	ByTiku  map[string]int `json:"by_tiku,omitempty"`
	Message string         `json:"message,omitempty"`
}

// # Usage Statistics

// SubjectUsage is the usage figure of one subject.
type SubjectUsage struct {
	SubjectID       int64   `json:"subject_id,omitempty"`
	SubjectName     string  `json:"subject_name"`
	UsedCount       int     `json:"used_count"`
	Rank            int     `json:"rank,omitempty"`
	UsagePercentage float64 `json:"usage_percentage,omitempty"`
}

// TikuUsage is the usage figure of one question bank.
type TikuUsage struct {
	TikuID          int64   `json:"tiku_id,omitempty"`
	TikuName        string  `json:"tiku_name"`
	SubjectName     string  `json:"subject_name"`
	UsedCount       int     `json:"used_count"`
	TikuPosition    string  `json:"tiku_position,omitempty"`
	Rank            int     `json:"rank,omitempty"`
	UsagePercentage float64 `json:"usage_percentage,omitempty"`
}

// UsageStats is the full usage report.
type UsageStats struct {
	SubjectStats []SubjectUsage `json:"subject_stats"`
	TikuStats    []TikuUsage    `json:"tiku_stats"`
}

// UsageSummary condenses the usage report into headline figures.
type UsageSummary struct {
	TotalSubjectUsage    int           `json:"total_subject_usage"`
	TotalTikuUsage       int           `json:"total_tiku_usage"`
	ActiveSubjectsCount  int           `json:"active_subjects_count"`
	ActiveTikuesCount    int           `json:"active_tikues_count"`
	MostPopularSubject   *SubjectUsage `json:"most_popular_subject,omitempty"`
	MostPopularTiku      *TikuUsage    `json:"most_popular_tiku,omitempty"`
	TotalSubjects        int           `json:"total_subjects"`
	TotalTikues          int           `json:"total_tikues"`
}
