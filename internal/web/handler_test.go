// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kotae/internal/platform/config"
)

// upstreamRecorder is a scripted upstream that remembers which paths were hit.
type upstreamRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (u *upstreamRecorder) record(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, path)
}

func (u *upstreamRecorder) saw(path string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range u.paths {
		if p == path {
			return true
		}
	}
	return false
}

func testHandler(t *testing.T, upstream http.Handler) *Handler {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		UpstreamBaseURL:   server.URL,
		UpstreamTimeout:   time.Second,
		BrowserSessionTTL: time.Hour,
	}
	return NewHandler(NewRegistry(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProfileUpdate_RejectsEmptyEdit(t *testing.T) {
	handler := testHandler(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Error("an empty edit must never reach the upstream")
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPut, "/app/profile", strings.NewReader(`{}`))
	handler.profileUpdate(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "没有提供有效的更新数据")
}

func TestProfileUpdate_ValidatesProvidedFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"short_username", `{"username": "ab"}`},
		{"bad_email", `{"email": "not-an-address"}`},
		{"long_student_id", `{"student_id": "1234567890123456"}`},
		{"grade_out_of_range", `{"grade": 2019}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := testHandler(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				t.Error("an invalid edit must never reach the upstream")
			}))

			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodPut, "/app/profile", strings.NewReader(tt.body))
			handler.profileUpdate(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
		})
	}
}

func TestProfileUpdate_UsernameChangeRefreshesIdentity(t *testing.T) {
	upstream := &upstreamRecorder{}
	handler := testHandler(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		upstream.record(request.URL.Path)
		switch request.URL.Path {
		case "/api/profile/info":
			_, _ = writer.Write([]byte(`{"success": true, "message": "个人信息更新成功"}`))
		case "/auth/user":
			_, _ = writer.Write([]byte(`{"success": true, "user": {"user_id": 42, "username": "yukihira", "model": 5}}`))
		default:
			t.Errorf("unexpected upstream path %s", request.URL.Path)
		}
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPut, "/app/profile", strings.NewReader(`{"username": "yukihira"}`))
	handler.profileUpdate(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, upstream.saw("/api/profile/info"))
	assert.True(t, upstream.saw("/auth/user"), "a renamed account must re-fetch the identity")
}

func TestProfileChangePassword_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing_current", `{"newPassword": "abcdef12", "confirmPassword": "abcdef12"}`},
		{"too_short", `{"currentPassword": "old", "newPassword": "ab1", "confirmPassword": "ab1"}`},
		{"mismatch", `{"currentPassword": "old", "newPassword": "abcdef12", "confirmPassword": "abcdef13"}`},
		{"no_digit", `{"currentPassword": "old", "newPassword": "abcdefgh", "confirmPassword": "abcdefgh"}`},
		{"no_letter", `{"currentPassword": "old", "newPassword": "12345678", "confirmPassword": "12345678"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := testHandler(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				t.Error("an invalid change must never reach the upstream")
			}))

			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodPut, "/app/profile/password", strings.NewReader(tt.body))
			handler.profileChangePassword(recorder, request)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestAdminUsers_ReturnsPaginatedEnvelope(t *testing.T) {
	handler := testHandler(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/auth/login":
			_, _ = writer.Write([]byte(`{
				"success": true,
				"user": {"user_id": 1, "username": "root", "model": 10},
				"session": {"user_id": 1, "username": "root", "is_authenticated": true, "session_valid": true, "time_remaining": 1800}
			}`))
		case "/api/admin/users":
			_, _ = writer.Write([]byte(`{
				"success": true,
				"users": [{"id": 2, "username": "shirayuki", "model": 5}],
				"pagination": {"page": 2, "per_page": 20, "total": 41, "total_pages": 3}
			}`))
		default:
			t.Errorf("unexpected upstream path %s", request.URL.Path)
		}
	}))

	loginRecorder := httptest.NewRecorder()
	loginRequest := httptest.NewRequest(http.MethodPost, "/app/auth/login", strings.NewReader(`{"username": "root", "password": "secret"}`))
	handler.login(loginRecorder, loginRequest)
	require.Equal(t, http.StatusOK, loginRecorder.Code)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/app/admin/users?page=2", nil)
	for _, cookie := range loginRecorder.Result().Cookies() {
		request.AddCookie(cookie)
	}
	handler.adminUsers(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	assert.Contains(t, body, `"meta"`)
	assert.Contains(t, body, `"page":2`)
	assert.Contains(t, body, `"total":41`)
	assert.Contains(t, body, `"total_pages":3`)
}

func TestQuestionStatuses_ReturnsAnswerBoard(t *testing.T) {
	handler := testHandler(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/session/status", request.URL.Path)
		_, _ = writer.Write([]byte(`{"success": true, "active": true, "question_statuses": ["correct", "unanswered"]}`))
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/app/practice/statuses", nil)
	handler.questionStatuses(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"question_statuses":["correct","unanswered"]`)
}

func TestLooksLikeEmail(t *testing.T) {
	assert.True(t, looksLikeEmail("shirayuki@example.edu"))
	assert.False(t, looksLikeEmail("no-at-sign"))
	assert.False(t, looksLikeEmail("@example.edu"))
	assert.False(t, looksLikeEmail("user@nodot"))
}

func TestHasLetterAndDigit(t *testing.T) {
	assert.True(t, hasLetterAndDigit("abc123"))
	assert.False(t, hasLetterAndDigit("abcdef"))
	assert.False(t, hasLetterAndDigit("123456"))
}
