// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package web

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/taibuivan/kotae/internal/admin"
	"github.com/taibuivan/kotae/internal/platform/apperr"
	requestutil "github.com/taibuivan/kotae/internal/platform/request"
	"github.com/taibuivan/kotae/internal/platform/respond"
	"github.com/taibuivan/kotae/internal/platform/validate"
	"github.com/taibuivan/kotae/internal/profile"
	"github.com/taibuivan/kotae/internal/session"
	"github.com/taibuivan/kotae/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the shell's JSON endpoints: auth actions driving the
// per-browser store, practice calls, and admin calls.
//
// Every endpoint resolves its browser bundle first; state never crosses
// browser sessions.
type Handler struct {
	registry *Registry
	logger   *slog.Logger
}

// NewHandler constructs a [Handler] over the registry.
func NewHandler(registry *Registry, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// browser resolves the request's bundle, replying 500 on failure.
func (handler *Handler) browser(writer http.ResponseWriter, request *http.Request) *Browser {
	browser, err := handler.registry.Resolve(writer, request)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return nil
	}
	return browser
}

// # Auth Payloads

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitation_code"`
}

// authState is the store snapshot serialized for the pages.
type authState struct {
	User            *session.User        `json:"user"`
	Session         *session.SessionInfo `json:"session"`
	IsAuthenticated bool                 `json:"is_authenticated"`
	Provisional     bool                 `json:"provisional"`
	IsInitialized   bool                 `json:"is_initialized"`
	IsLoading       bool                 `json:"is_loading"`
	ExpiringSoon    bool                 `json:"expiring_soon"`
	TimeRemaining   string               `json:"time_remaining"`
	Error           string               `json:"error,omitempty"`
}

func stateOf(snapshot session.Snapshot) authState {
	return authState{
		User:            snapshot.User,
		Session:         snapshot.SessionInfo,
		IsAuthenticated: snapshot.IsAuthenticated(),
		Provisional:     snapshot.Provisional(),
		IsInitialized:   snapshot.IsInitialized,
		IsLoading:       snapshot.IsLoading,
		ExpiringSoon:    snapshot.IsSessionExpiringSoon(),
		TimeRemaining:   snapshot.SessionTimeRemainingText(),
		Error:           snapshot.Error,
	}
}

// # Auth Endpoints

/*
Login handles POST /app/auth/login.

Description: Validates credentials and drives the browser store's login
flow. On success the upstream lease is already in the browser's cookie jar
and the state snapshot reflects the new identity.

Response:
  - 200: authState
  - 400: validation failure
  - 401: upstream rejected the credentials (message from upstream, cleaned)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("username", input.Username).
		Required("password", input.Password)
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	if !browser.Store.Login(request.Context(), input.Username, input.Password) {
		respond.Error(writer, request, apperr.Unauthorized(browser.Store.Err()))
		return
	}
	respond.OK(writer, stateOf(browser.Store.Snapshot()))
}

/*
Register handles POST /app/auth/register.

Description: Validates the form and forwards it upstream. A successful
registration does NOT log the visitor in; the pages redirect to login.

Response:
  - 200: map with the outcome notice
  - 400: validation failure or upstream refusal (message from upstream)
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("username", input.Username).
		MinLen("username", input.Username, 3).
		Required("password", input.Password).
		MinLen("password", input.Password, 6).
		Required("invitation_code", input.InvitationCode)
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	if !browser.Store.Register(request.Context(), input.Username, input.Password, input.InvitationCode) {
		respond.Error(writer, request, apperr.ValidationError(browser.Store.Err()))
		return
	}
	respond.OK(writer, map[string]string{"message": "注册成功"})
}

// logout handles POST /app/auth/logout. Local teardown is unconditional;
// the endpoint cannot fail from the pages' point of view.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	browser.Store.Logout(request.Context())
	respond.OK(writer, stateOf(browser.Store.Snapshot()))
}

// state handles GET /app/auth/state: the current snapshot, running the
// page-load probe first if this store has never initialized.
func (handler *Handler) state(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	if !browser.Store.IsInitialized() {
		browser.Store.CheckAuth(request.Context())
	}
	respond.OK(writer, stateOf(browser.Store.Snapshot()))
}

// extendSession handles POST /app/session/extend.
func (handler *Handler) extendSession(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	extended := browser.Store.ExtendUserSession(request.Context())
	respond.OK(writer, map[string]any{
		"extended": extended,
		"state":    stateOf(browser.Store.Snapshot()),
	})
}

// warningShown handles POST /app/session/warning-shown. Fire-and-forget
// acknowledgment; the pages ignore the response body.
func (handler *Handler) warningShown(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	browser.Store.MarkSessionWarningAsShown(request.Context())
	respond.NoContent(writer)
}

// # Profile Endpoints

// profileInfo handles GET /app/profile.
func (handler *Handler) profileInfo(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	record, err := browser.Profile.Info(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, record)
}

/*
profileUpdate handles PUT /app/profile.

Description: Validates whichever fields the edit carries and forwards them
upstream. When the username changed, the store's identity is re-fetched so
the session reflects the new name without a re-login.

Response:
  - 200: map with the outcome notice
  - 400: validation failure, empty edit, or upstream refusal (e.g. the
    username is already taken)
*/
func (handler *Handler) profileUpdate(writer http.ResponseWriter, request *http.Request) {
	var input profile.Update
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Empty() {
		respond.Error(writer, request, apperr.ValidationError("没有提供有效的更新数据"))
		return
	}

	validator := &validate.Validator{}
	if input.Username != nil {
		validator.MinLen("username", *input.Username, 3).
			MaxLen("username", *input.Username, 20)
	}
	if input.Email != nil {
		validator.Custom("email", !looksLikeEmail(*input.Email), "邮箱格式不正确")
	}
	if input.StudentID != nil {
		validator.MaxLen("student_id", *input.StudentID, 15)
	}
	if input.Major != nil {
		validator.MaxLen("major", *input.Major, 30)
	}
	if input.Grade != nil {
		validator.Range("grade", *input.Grade, 2020, 2030)
	}
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Profile.Save(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Username != nil {
		browser.Store.RefreshUserInfo(request.Context())
	}
	respond.OK(writer, map[string]string{"message": message})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// profileChangePassword handles PUT /app/profile/password.
func (handler *Handler) profileChangePassword(writer http.ResponseWriter, request *http.Request) {
	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("currentPassword", input.CurrentPassword).
		Required("newPassword", input.NewPassword).
		Required("confirmPassword", input.ConfirmPassword).
		MinLen("newPassword", input.NewPassword, 8).
		Custom("confirmPassword", input.NewPassword != input.ConfirmPassword, "两次输入的新密码不一致").
		Custom("newPassword", !hasLetterAndDigit(input.NewPassword), "密码必须包含字母和数字")
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Profile.ChangePassword(request.Context(), input.CurrentPassword, input.NewPassword, input.ConfirmPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// looksLikeEmail applies the minimal shape check: an @ with a dotted domain.
func looksLikeEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// hasLetterAndDigit reports whether the password carries at least one letter
// and one digit.
func hasLetterAndDigit(password string) bool {
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// # Practice Endpoints

type startPracticeRequest struct {
	Subject          string `json:"subject"`
	FileName         string `json:"fileName"`
	ForceRestart     bool   `json:"force_restart"`
	ShuffleQuestions bool   `json:"shuffle_questions"`
}

type submitAnswerRequest struct {
	Answer     string `json:"answer"`
	QuestionID string `json:"question_id"`
	Peeked     bool   `json:"peeked"`
	IsSkipped  bool   `json:"is_skipped"`
}

// fileOptions handles GET /app/practice/subjects.
func (handler *Handler) fileOptions(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	subjects, err := browser.Quiz.FileOptions(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, subjects)
}

// startPractice handles POST /app/practice/start.
func (handler *Handler) startPractice(writer http.ResponseWriter, request *http.Request) {
	var input startPracticeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("subject", input.Subject).
		Required("fileName", input.FileName)
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	started, err := browser.Quiz.Start(request.Context(), input.Subject, input.FileName, input.ForceRestart, input.ShuffleQuestions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, started)
}

// currentQuestion handles GET /app/practice/question.
func (handler *Handler) currentQuestion(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	view, err := browser.Quiz.CurrentQuestion(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

// submitAnswer handles POST /app/practice/submit.
func (handler *Handler) submitAnswer(writer http.ResponseWriter, request *http.Request) {
	var input submitAnswerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("question_id", input.QuestionID).
		Custom("answer", input.Answer == "" && !input.IsSkipped, "answer is required unless skipping")
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	feedback, err := browser.Quiz.Submit(request.Context(), input.Answer, input.QuestionID, input.Peeked, input.IsSkipped)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, feedback)
}

// jump handles GET /app/practice/jump?index=N.
func (handler *Handler) jump(writer http.ResponseWriter, request *http.Request) {
	index, err := requestutil.QueryInt(request, "index")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("index must be an integer"))
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Quiz.Jump(request.Context(), index)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// completedSummary handles GET /app/practice/completed.
func (handler *Handler) completedSummary(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	view, err := browser.Quiz.CompletedSummary(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

// questionAnalysis handles GET /app/practice/questions/{questionID}/analysis.
func (handler *Handler) questionAnalysis(writer http.ResponseWriter, request *http.Request) {
	questionID := requestutil.Param(request, "questionID")

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	analysis, err := browser.Quiz.Analysis(request.Context(), questionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, analysis)
}

// questionHistory handles GET /app/practice/history/{index}.
func (handler *Handler) questionHistory(writer http.ResponseWriter, request *http.Request) {
	index, err := requestutil.ParamInt(request, "index")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("index must be an integer"))
		return
	}

	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	entry, err := browser.Quiz.History(request.Context(), index)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entry)
}

// questionStatuses handles GET /app/practice/statuses: the per-question
// answer board the practice page renders its navigation grid from.
func (handler *Handler) questionStatuses(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	statuses, err := browser.Quiz.QuestionStatuses(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"question_statuses": statuses})
}

// runStatus handles GET /app/practice/status.
func (handler *Handler) runStatus(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	status, err := browser.Quiz.RunStatus(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, status)
}

// # Admin Endpoints

// requireAdmin refuses callers whose store does not hold a ROOT identity.
// The upstream enforces this again; the local gate just fails fast.
func (handler *Handler) requireAdmin(writer http.ResponseWriter, request *http.Request) *Browser {
	browser := handler.browser(writer, request)
	if browser == nil {
		return nil
	}

	snapshot := browser.Store.Snapshot()
	if snapshot.User == nil || snapshot.User.Model != session.AccessRoot {
		respond.Error(writer, request, apperr.Forbidden("需要管理员权限"))
		return nil
	}
	return browser
}

// adminStats handles GET /app/admin/stats.
func (handler *Handler) adminStats(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	stats, err := browser.Admin.Stats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

// adminUsers handles GET /app/admin/users.
func (handler *Handler) adminUsers(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	list, err := browser.Admin.Users(request.Context(), listQueryFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, list.Users, metaOf(list.Pagination))
}

// adminToggleUser handles POST /app/admin/users/{userID}/toggle.
func (handler *Handler) adminToggleUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.ParamInt64(request, "userID")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("userID must be an integer"))
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.ToggleUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminSetUserModel handles PUT /app/admin/users/{userID}/model.
func (handler *Handler) adminSetUserModel(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.ParamInt64(request, "userID")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("userID must be an integer"))
		return
	}

	var input struct {
		Model int `json:"model"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if !session.AccessLevel(input.Model).Valid() {
		respond.Error(writer, request, apperr.ValidationError("无效的用户模型"))
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.SetUserModel(request.Context(), userID, input.Model)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminInvitations handles GET /app/admin/invitations.
func (handler *Handler) adminInvitations(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	invitations, err := browser.Admin.Invitations(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"invitations": invitations})
}

// adminCreateInvitation handles POST /app/admin/invitations.
func (handler *Handler) adminCreateInvitation(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Code       string `json:"code"`
		ExpireDays *int   `json:"expire_days"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	invitation, err := browser.Admin.CreateInvitation(request.Context(), input.Code, input.ExpireDays)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, invitation)
}

// adminDeleteInvitation handles DELETE /app/admin/invitations/{invitationID}.
func (handler *Handler) adminDeleteInvitation(writer http.ResponseWriter, request *http.Request) {
	invitationID, err := requestutil.ParamInt64(request, "invitationID")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("invitationID must be an integer"))
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.DeleteInvitation(request.Context(), invitationID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminSubjects handles GET /app/admin/subjects.
func (handler *Handler) adminSubjects(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	subjects, err := browser.Admin.Subjects(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"subjects": subjects})
}

type subjectRequest struct {
	SubjectName string `json:"subject_name"`
	ExamTime    string `json:"exam_time"`
}

// adminCreateSubject handles POST /app/admin/subjects.
func (handler *Handler) adminCreateSubject(writer http.ResponseWriter, request *http.Request) {
	var input subjectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("subject_name", input.SubjectName).
		MaxLen("subject_name", input.SubjectName, 50)
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	subjectID, message, err := browser.Admin.CreateSubject(request.Context(), input.SubjectName, input.ExamTime)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, map[string]any{"subject_id": subjectID, "message": message})
}

// adminUpdateSubject handles PUT /app/admin/subjects/{subjectID}.
func (handler *Handler) adminUpdateSubject(writer http.ResponseWriter, request *http.Request) {
	subjectID, err := requestutil.ParamInt64(request, "subjectID")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("subjectID must be an integer"))
		return
	}

	var input subjectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("subject_name", input.SubjectName).
		MaxLen("subject_name", input.SubjectName, 50)
	if validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.UpdateSubject(request.Context(), subjectID, input.SubjectName, input.ExamTime)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminDeleteSubject handles DELETE /app/admin/subjects/{subjectID}.
func (handler *Handler) adminDeleteSubject(writer http.ResponseWriter, request *http.Request) {
	subjectID, err := requestutil.ParamInt64(request, "subjectID")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("subjectID must be an integer"))
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.DeleteSubject(request.Context(), subjectID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminTikuList handles GET /app/admin/tiku.
func (handler *Handler) adminTikuList(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	banks, err := browser.Admin.TikuList(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"tiku": banks})
}

/*
adminUploadTiku handles POST /app/admin/tiku/upload.

Description: Accepts a multipart spreadsheet upload and streams it to the
upstream import endpoint. The file part is named "file"; subject_id and
tiku_name travel as form fields.

Response:
  - 200: map with the import notice
  - 400: missing file part or invalid subject_id
*/
func (handler *Handler) adminUploadTiku(writer http.ResponseWriter, request *http.Request) {
	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("没有上传文件"))
		return
	}
	defer file.Close()

	subjectID, err := requestutil.FormInt64(request, "subject_id")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("缺少科目ID"))
		return
	}
	tikuName := request.FormValue("tiku_name")

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.UploadTiku(request.Context(), subjectID, tikuName, header.Filename, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminDeleteTiku handles DELETE /app/admin/tiku/{tikuID}.
func (handler *Handler) adminDeleteTiku(writer http.ResponseWriter, request *http.Request) {
	tikuID, err := requestutil.ParamInt64(request, "tikuID")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("tikuID must be an integer"))
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.DeleteTiku(request.Context(), tikuID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminToggleTiku handles POST /app/admin/tiku/{tikuID}/toggle.
func (handler *Handler) adminToggleTiku(writer http.ResponseWriter, request *http.Request) {
	tikuID, err := requestutil.ParamInt64(request, "tikuID")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("tikuID must be an integer"))
		return
	}

	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.ToggleTiku(request.Context(), tikuID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminReloadBanks handles POST /app/admin/reload-banks.
func (handler *Handler) adminReloadBanks(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	message, err := browser.Admin.ReloadBanks(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"message": message})
}

// adminQuestions handles GET /app/admin/questions.
func (handler *Handler) adminQuestions(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	list, err := browser.Admin.Questions(request.Context(), listQueryFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, list.Questions, metaOf(list.Pagination))
}

// adminQuestionStats handles GET /app/admin/questions/stats.
func (handler *Handler) adminQuestionStats(writer http.ResponseWriter, request *http.Request) {
	browser := handler.requireAdmin(writer, request)
	if browser == nil {
		return
	}

	stats, err := browser.Admin.QuestionStats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

// usageStats handles GET /app/stats/usage. Requires any authenticated
// session; the guard on the stats page enforces that already.
func (handler *Handler) usageStats(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	stats, err := browser.Admin.Usage(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

// usageSummary handles GET /app/stats/usage/summary.
func (handler *Handler) usageSummary(writer http.ResponseWriter, request *http.Request) {
	browser := handler.browser(writer, request)
	if browser == nil {
		return
	}

	summary, err := browser.Admin.UsageSummary(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, summary)
}

// # Helpers

// metaOf folds the upstream's page metadata into the shell's envelope meta.
func metaOf(page admin.Page) pagination.Meta {
	return pagination.NewMeta(page.Page, page.PerPage, page.Total)
}

// listQueryFromRequest maps the shell's list-query parameters onto the
// upstream's page/per_page vocabulary, clamped by the shared pagination
// rules.
func listQueryFromRequest(request *http.Request) admin.ListQuery {
	params := pagination.FromRequest(request)
	return admin.ListQuery{
		Search:   requestutil.Query(request, "search"),
		OrderBy:  requestutil.Query(request, "order_by"),
		OrderDir: requestutil.Query(request, "order_dir"),
		Page:     params.Page,
		PerPage:  params.Limit,
	}
}
