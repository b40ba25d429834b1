// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package quiz provides the typed client for the practice API.

The package owns the wire types of the practice domain (questions, rounds,
feedback, subject catalogs) and a stateless [Client] that maps each upstream
endpoint to one method. Practice progress itself lives server-side per
session lease; the client never caches any of it.
*/
package quiz

// # Question Status

// Status is the per-question answer state within the active round.
type Status int

const (
	// StatusUnanswered marks a question not yet attempted this round.
	StatusUnanswered Status = 0
	// StatusCorrect marks a question answered correctly on first try.
	StatusCorrect Status = 1
	// StatusWrong marks a wrong answer or a revealed solution.
	StatusWrong Status = 2
)

// Name returns the display identifier used by the progress board.
func (s Status) Name() string {
	switch s {
	case StatusUnanswered:
		return "unanswered"
	case StatusCorrect:
		return "correct"
	case StatusWrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// # Core Types

// Question is one practice item as served for answering. The answer field
// travels with it because reveal ("peek") happens client-side.
type Question struct {
	ID                 string            `json:"id"`
	Type               string            `json:"type"`
	Question           string            `json:"question"`
	OptionsForPractice map[string]string `json:"options_for_practice,omitempty"`
	Answer             string            `json:"answer"`
	IsMultipleChoice   bool              `json:"is_multiple_choice"`
	Analysis           string            `json:"analysis,omitempty"`
	KnowledgePoints    []string          `json:"knowledge_points,omitempty"`
}

// Progress is the position marker attached to every served question.
type Progress struct {
	RoundNumber  int `json:"round_number"`
	Current      int `json:"current"`
	Total        int `json:"total"`
	CorrectCount int `json:"correct_count,omitempty"`
	InitialTotal int `json:"initial_total,omitempty"`
}

// PracticeProgress is the resumable-session summary shown on the subject
// catalog for a previously started question bank.
type PracticeProgress struct {
	CurrentQuestion int     `json:"current_question"`
	TotalQuestions  int     `json:"total_questions"`
	InitialTotal    int     `json:"initial_total"`
	CorrectFirstTry int     `json:"correct_first_try"`
	RoundNumber     int     `json:"round_number"`
	ProgressPercent float64 `json:"progress_percent"`
}

// FlashMessage is a one-shot notice the upstream attaches to a response.
type FlashMessage struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Feedback is the verdict returned for one submitted answer.
type Feedback struct {
	IsCorrect            bool   `json:"is_correct"`
	UserAnswerDisplay    string `json:"user_answer_display"`
	CorrectAnswerDisplay string `json:"correct_answer_display"`
	QuestionID           string `json:"question_id"`
	CurrentIndex         int    `json:"current_index"`
	Explanation          string `json:"explanation,omitempty"`
}

// # Subject Catalog

// SubjectFile describes one question bank within a subject.
type SubjectFile struct {
	Key       string            `json:"key"`
	Display   string            `json:"display"`
	Count     int               `json:"count"`
	Progress  *PracticeProgress `json:"progress,omitempty"`
	TikuID    int64             `json:"tiku_id,omitempty"`
	FileSize  int64             `json:"file_size,omitempty"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

// SubjectData groups the question banks of one subject.
type SubjectData struct {
	Files    []SubjectFile `json:"files"`
	ExamTime *string       `json:"exam_time,omitempty"`
}

// Subjects is the full catalog, keyed by subject name.
type Subjects struct {
	Subjects map[string]SubjectData `json:"subjects"`
	Message  string                 `json:"message,omitempty"`
}

// # Endpoint Responses

// StartResult reports the outcome of starting or resuming a practice run.
type StartResult struct {
	Message string `json:"message"`
	Resumed bool   `json:"resumed,omitempty"`
}

// QuestionView is the full payload of a served question: the item, the
// position, pending notices, and the completion redirect flag.
type QuestionView struct {
	Message             string         `json:"message,omitempty"`
	Question            Question       `json:"question"`
	Progress            Progress       `json:"progress"`
	FlashMessages       []FlashMessage `json:"flash_messages"`
	RedirectToCompleted bool           `json:"redirect_to_completed,omitempty"`
}

// CompletedSummary is the final scorecard of a finished run.
type CompletedSummary struct {
	InitialTotal      int     `json:"initial_total"`
	CorrectFirstTry   int     `json:"correct_first_try"`
	ScorePercent      float64 `json:"score_percent"`
	CompletedFilename string  `json:"completed_filename"`
}

// CompletedStats carries the aggregate figures shown on the completion page.
type CompletedStats struct {
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	Accuracy       float64 `json:"accuracy"`
	TimeSpent      string  `json:"time_spent"`
}

// CompletedView is the completion-page payload.
type CompletedView struct {
	Message       string            `json:"message"`
	Summary       *CompletedSummary `json:"summary,omitempty"`
	FlashMessages []FlashMessage    `json:"flash_messages,omitempty"`
	Stats         *CompletedStats   `json:"stats,omitempty"`
}

// Analysis is the explanation payload of one question.
type Analysis struct {
	Message         string   `json:"message,omitempty"`
	Analysis        string   `json:"analysis,omitempty"`
	KnowledgePoints []string `json:"knowledge_points,omitempty"`
}

// HistoryEntry is a previously answered question replayed read-only.
type HistoryEntry struct {
	Message  string    `json:"message,omitempty"`
	Question *Question `json:"question,omitempty"`
	Feedback *Feedback `json:"feedback,omitempty"`
}

// RunFileInfo identifies the question bank behind an active run.
type RunFileInfo struct {
	Key     string `json:"key"`
	Display string `json:"display"`
	Subject string `json:"subject"`
}

// RunProgress is the compact position block of a run-status probe.
type RunProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Round   int `json:"round"`
}

// RunStatistics are the running counters of an active run.
type RunStatistics struct {
	InitialTotal    int `json:"initial_total"`
	CorrectFirstTry int `json:"correct_first_try"`
	WrongCount      int `json:"wrong_count"`
}

// RunStatus is the practice-session status probe: whether a run exists,
// whether it finished, and every board the UI restores from.
type RunStatus struct {
	Active           bool           `json:"active"`
	Completed        bool           `json:"completed,omitempty"`
	Message          string         `json:"message,omitempty"`
	FileInfo         *RunFileInfo   `json:"file_info,omitempty"`
	Progress         *RunProgress   `json:"progress,omitempty"`
	Statistics       *RunStatistics `json:"statistics,omitempty"`
	QuestionStatuses []string       `json:"question_statuses,omitempty"`
}
