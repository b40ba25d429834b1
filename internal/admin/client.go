// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/taibuivan/kotae/internal/transport"
)

// # Wire Paths

const (
	pathStats          = "/api/admin/stats"
	pathUsers          = "/api/admin/users"
	pathInvitations    = "/api/admin/invitations"
	pathSubjects       = "/api/admin/subjects"
	pathTiku           = "/api/admin/tiku"
	pathTikuUpload     = "/api/admin/tiku/upload"
	pathQuestions      = "/api/admin/questions"
	pathQuestionsStats = "/api/admin/questions/stats"
	pathReloadBanks    = "/api/admin/reload-banks"
	pathUsageStats     = "/api/usage-stats"
	pathUsageSummary   = "/api/usage-stats/summary"
)

// # Client

// Client is the typed wrapper over the administration endpoints.
type Client struct {
	http *transport.Client
}

// NewClient constructs an admin client on top of a credentialed transport.
func NewClient(http *transport.Client) *Client {
	return &Client{http: http}
}

// encode renders a list query, omitting zero values so the upstream's
// defaults and clamping stay in charge.
func (q ListQuery) encode() string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.OrderBy != "" {
		values.Set("order_by", q.OrderBy)
	}
	if q.OrderDir != "" {
		values.Set("order_dir", q.OrderDir)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// # Dashboard

// Stats fetches the admin dashboard aggregates.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var response Stats
	result := c.http.Get(ctx, pathStats, &response)
	if err := result.AsError(); err != nil {
		return Stats{}, err
	}
	return response, nil
}

// # Accounts

// Users lists accounts, searchable and ordered per the query.
func (c *Client) Users(ctx context.Context, query ListQuery) (UserList, error) {
	var response UserList
	result := c.http.Get(ctx, pathUsers+query.encode(), &response)
	if err := result.AsError(); err != nil {
		return UserList{}, err
	}
	return response, nil
}

// ToggleUser flips an account's enabled flag and returns the outcome notice.
func (c *Client) ToggleUser(ctx context.Context, userID int64) (string, error) {
	path := fmt.Sprintf("%s/%d/toggle", pathUsers, userID)

	result := c.http.Post(ctx, path, nil, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

/*
SetUserModel changes an account's access level.

The upstream accepts only the three defined levels and refuses to modify
the caller's own account; both refusals come back as server errors.
*/
func (c *Client) SetUserModel(ctx context.Context, userID int64, model int) (string, error) {
	path := fmt.Sprintf("%s/%d/model", pathUsers, userID)
	body := map[string]int{"model": model}

	result := c.http.Put(ctx, path, body, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// # Invitations

// Invitations lists all invitation codes, newest first.
func (c *Client) Invitations(ctx context.Context) ([]Invitation, error) {
	var response struct {
		Invitations []Invitation `json:"invitations"`
	}

	result := c.http.Get(ctx, pathInvitations, &response)
	if err := result.AsError(); err != nil {
		return nil, err
	}
	return response.Invitations, nil
}

/*
CreateInvitation mints a new invitation code.

Parameters:
  - code: desired code; empty lets the upstream generate one
  - expireDays: validity window in days; nil means no expiry
*/
func (c *Client) CreateInvitation(ctx context.Context, code string, expireDays *int) (Invitation, error) {
	body := map[string]any{"code": code}
	if expireDays != nil {
		body["expire_days"] = *expireDays
	}

	var response struct {
		Invitation Invitation `json:"invitation"`
	}

	result := c.http.Post(ctx, pathInvitations, body, &response)
	if err := result.AsError(); err != nil {
		return Invitation{}, err
	}
	return response.Invitation, nil
}

// DeleteInvitation removes an unused invitation code.
func (c *Client) DeleteInvitation(ctx context.Context, invitationID int64) (string, error) {
	path := fmt.Sprintf("%s/%d", pathInvitations, invitationID)

	result := c.http.Delete(ctx, path, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// # Subjects

// Subjects lists all subjects with their bank and question counts.
func (c *Client) Subjects(ctx context.Context) ([]Subject, error) {
	var response struct {
		Subjects []Subject `json:"subjects"`
	}

	result := c.http.Get(ctx, pathSubjects, &response)
	if err := result.AsError(); err != nil {
		return nil, err
	}
	return response.Subjects, nil
}

// CreateSubject registers a new subject. An empty examTime means none is set.
func (c *Client) CreateSubject(ctx context.Context, subjectName, examTime string) (int64, string, error) {
	body := map[string]string{
		"subject_name": subjectName,
		"exam_time":    examTime,
	}

	var response struct {
		SubjectID int64 `json:"subject_id"`
	}

	result := c.http.Post(ctx, pathSubjects, body, &response)
	if err := result.AsError(); err != nil {
		return 0, "", err
	}
	return response.SubjectID, result.Message, nil
}

// UpdateSubject renames a subject and resets its exam time.
func (c *Client) UpdateSubject(ctx context.Context, subjectID int64, subjectName, examTime string) (string, error) {
	path := fmt.Sprintf("%s/%d", pathSubjects, subjectID)
	body := map[string]string{
		"subject_name": subjectName,
		"exam_time":    examTime,
	}

	result := c.http.Put(ctx, path, body, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// DeleteSubject removes a subject and everything under it.
func (c *Client) DeleteSubject(ctx context.Context, subjectID int64) (string, error) {
	path := fmt.Sprintf("%s/%d", pathSubjects, subjectID)

	result := c.http.Delete(ctx, path, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// # Question Banks

// TikuList lists every registered question-bank file.
func (c *Client) TikuList(ctx context.Context) ([]Tiku, error) {
	var response struct {
		Tiku []Tiku `json:"tiku"`
	}

	result := c.http.Get(ctx, pathTiku, &response)
	if err := result.AsError(); err != nil {
		return nil, err
	}
	return response.Tiku, nil
}

/*
UploadTiku imports a question-bank spreadsheet under a subject.

Parameters:
  - subjectID: owning subject
  - tikuName: display name; empty derives it from the file name upstream
  - fileName: original spreadsheet name, must end in .xlsx or .xls
  - file: spreadsheet content

Returns:
  - string: the outcome notice, e.g. the imported question count
*/
func (c *Client) UploadTiku(ctx context.Context, subjectID int64, tikuName, fileName string, file io.Reader) (string, error) {
	fields := map[string]string{
		"subject_id": strconv.FormatInt(subjectID, 10),
		"tiku_name":  tikuName,
	}

	result := c.http.PostMultipart(ctx, pathTikuUpload, fields, "file", fileName, file, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// DeleteTiku removes a question-bank file and its questions.
func (c *Client) DeleteTiku(ctx context.Context, tikuID int64) (string, error) {
	path := fmt.Sprintf("%s/%d", pathTiku, tikuID)

	result := c.http.Delete(ctx, path, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// ToggleTiku flips a bank's active flag, hiding or showing it in the catalog.
func (c *Client) ToggleTiku(ctx context.Context, tikuID int64) (string, error) {
	path := fmt.Sprintf("%s/%d/toggle", pathTiku, tikuID)

	result := c.http.Post(ctx, path, nil, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// ReloadBanks forces the upstream to rebuild its bank cache from storage.
func (c *Client) ReloadBanks(ctx context.Context) (string, error) {
	result := c.http.Post(ctx, pathReloadBanks, nil, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// # Question Maintenance

// Questions lists items for maintenance, filtered and paged per the query.
func (c *Client) Questions(ctx context.Context, query ListQuery) (QuestionList, error) {
	var response QuestionList
	result := c.http.Get(ctx, pathQuestions+query.encode(), &response)
	if err := result.AsError(); err != nil {
		return QuestionList{}, err
	}
	return response, nil
}

// QuestionStats fetches item counts grouped by type and bank.
func (c *Client) QuestionStats(ctx context.Context) (QuestionStats, error) {
	var response QuestionStats
	result := c.http.Get(ctx, pathQuestionsStats, &response)
	if err := result.AsError(); err != nil {
		return QuestionStats{}, err
	}
	return response, nil
}

// # Usage Statistics

// Usage fetches the per-subject and per-bank usage report.
func (c *Client) Usage(ctx context.Context) (UsageStats, error) {
	var response UsageStats
	result := c.http.Get(ctx, pathUsageStats, &response)
	if err := result.AsError(); err != nil {
		return UsageStats{}, err
	}
	return response, nil
}

// UsageSummary condenses the usage report into headline figures.
func (c *Client) UsageSummary(ctx context.Context) (UsageSummary, error) {
	var response UsageSummary
	result := c.http.Get(ctx, pathUsageSummary, &response)
	if err := result.AsError(); err != nil {
		return UsageSummary{}, err
	}
	return response, nil
}
