// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quiz

import (
	"context"
	"fmt"

	"github.com/taibuivan/kotae/internal/transport"
)

// # Wire Paths

const (
	pathFileOptions = "/api/file_options"
	pathStart       = "/api/start_practice"
	pathQuestion    = "/api/practice/question"
	pathSubmit      = "/api/practice/submit"
	pathJump        = "/api/practice/jump"
	pathCompleted   = "/api/completed_summary"
	pathRunStatus   = "/api/session/status"
)

// # Client

// Client is the typed wrapper over the practice endpoints. Stateless; the
// active run lives upstream, keyed by the transport's session cookie.
type Client struct {
	http *transport.Client
}

// NewClient constructs a practice client on top of a credentialed transport.
func NewClient(http *transport.Client) *Client {
	return &Client{http: http}
}

/*
FileOptions fetches the subject catalog: every subject, its question banks,
and any resumable progress the visitor has on them.

Returns:
  - Subjects: the catalog keyed by subject name
  - error: taxonomy error on any failure
*/
func (c *Client) FileOptions(ctx context.Context) (Subjects, error) {
	var response Subjects
	result := c.http.Get(ctx, pathFileOptions, &response)
	if err := result.AsError(); err != nil {
		return Subjects{}, err
	}
	return response, nil
}

/*
Start begins (or resumes) a practice run over one question bank.

Parameters:
  - subject, fileName: catalog coordinates of the bank
  - forceRestart: discard an existing run over the same bank
  - shuffleQuestions: randomize question order for the new run
*/
func (c *Client) Start(ctx context.Context, subject, fileName string, forceRestart, shuffleQuestions bool) (StartResult, error) {
	body := map[string]any{
		"subject":           subject,
		"fileName":          fileName,
		"force_restart":     forceRestart,
		"shuffle_questions": shuffleQuestions,
	}

	var response StartResult
	result := c.http.Post(ctx, pathStart, body, &response)
	if err := result.AsError(); err != nil {
		return StartResult{}, err
	}

	response.Message = result.Message
	return response, nil
}

// CurrentQuestion fetches the question at the run's cursor, together with
// position, flash notices, and the completion redirect flag.
func (c *Client) CurrentQuestion(ctx context.Context) (QuestionView, error) {
	var response QuestionView
	result := c.http.Get(ctx, pathQuestion, &response)
	if err := result.AsError(); err != nil {
		return QuestionView{}, err
	}
	return response, nil
}

/*
Submit grades one answer and advances the run.

Parameters:
  - answer: the visitor's choice(s), e.g. "A" or "A,B"
  - questionID: the item being answered, echoed back for consistency checks
  - revealed: the answer was peeked before submitting (graded as wrong)
  - skipped: the question was skipped without answering
*/
func (c *Client) Submit(ctx context.Context, answer, questionID string, revealed, skipped bool) (Feedback, error) {
	body := map[string]any{
		"answer":      answer,
		"question_id": questionID,
		"peeked":      revealed,
		"is_skipped":  skipped,
	}

	var response Feedback
	result := c.http.Post(ctx, pathSubmit, body, &response)
	if err := result.AsError(); err != nil {
		return Feedback{}, err
	}
	return response, nil
}

// Jump moves the run cursor to the given zero-based question index.
func (c *Client) Jump(ctx context.Context, index int) (string, error) {
	path := fmt.Sprintf("%s?index=%d", pathJump, index)

	result := c.http.Get(ctx, path, nil)
	if err := result.AsError(); err != nil {
		return "", err
	}
	return result.Message, nil
}

// CompletedSummary fetches the scorecard of a finished run.
func (c *Client) CompletedSummary(ctx context.Context) (CompletedView, error) {
	var response CompletedView
	result := c.http.Get(ctx, pathCompleted, &response)
	if err := result.AsError(); err != nil {
		return CompletedView{}, err
	}
	return response, nil
}

// Analysis fetches the explanation of one question by its identifier.
func (c *Client) Analysis(ctx context.Context, questionID string) (Analysis, error) {
	path := fmt.Sprintf("/api/questions/%s/analysis", questionID)

	var response Analysis
	result := c.http.Get(ctx, path, &response)
	if err := result.AsError(); err != nil {
		return Analysis{}, err
	}
	return response, nil
}

// History replays an already answered question, read-only, by its index
// within the current round.
func (c *Client) History(ctx context.Context, index int) (HistoryEntry, error) {
	path := fmt.Sprintf("/api/practice/history/%d", index)

	var response HistoryEntry
	result := c.http.Get(ctx, path, &response)
	if err := result.AsError(); err != nil {
		return HistoryEntry{}, err
	}
	return response, nil
}

// RunStatus probes whether the visitor has an active practice run and, if
// so, returns everything the UI needs to restore it.
//
// An inactive run is a normal answer, not an error; only transport and
// server failures surface as errors.
func (c *Client) RunStatus(ctx context.Context) (RunStatus, error) {
	var response RunStatus
	result := c.http.Get(ctx, pathRunStatus, &response)
	if err := result.AsError(); err != nil {
		return RunStatus{}, err
	}
	return response, nil
}

// QuestionStatuses extracts the per-question answer board from a run-status
// probe, returning an empty board when no run is active.
func (c *Client) QuestionStatuses(ctx context.Context) ([]string, error) {
	status, err := c.RunStatus(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Active {
		return []string{}, nil
	}
	return status.QuestionStatuses, nil
}
