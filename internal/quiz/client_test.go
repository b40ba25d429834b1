// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quiz_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kotae/internal/platform/apperr"
	"github.com/taibuivan/kotae/internal/quiz"
	"github.com/taibuivan/kotae/internal/transport"
)

func newClient(t *testing.T, handler http.Handler) (*quiz.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient, err := transport.New(server.URL, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return quiz.NewClient(httpClient), server
}

func TestClient_FileOptions(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/file_options", request.URL.Path)
		_, _ = writer.Write([]byte(`{
			"success": true,
			"subjects": {
				"网络技术": {
					"files": [{"key": "net-1", "display": "第一章", "count": 120, "tiku_id": 9}],
					"exam_time": "2026-09-12"
				}
			}
		}`))
	}))

	subjects, err := client.FileOptions(context.Background())
	require.NoError(t, err)

	subject, ok := subjects.Subjects["网络技术"]
	require.True(t, ok)
	require.Len(t, subject.Files, 1)
	assert.Equal(t, "第一章", subject.Files[0].Display)
	assert.Equal(t, int64(9), subject.Files[0].TikuID)
}

func TestClient_Start_SendsFullPayload(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/api/start_practice", request.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "网络技术", body["subject"])
		assert.Equal(t, "net-1", body["fileName"])
		assert.Equal(t, true, body["force_restart"])
		assert.Equal(t, false, body["shuffle_questions"])

		_, _ = writer.Write([]byte(`{"success": true, "message": "练习已开始", "resumed": false}`))
	}))

	started, err := client.Start(context.Background(), "网络技术", "net-1", true, false)
	require.NoError(t, err)
	assert.Equal(t, "练习已开始", started.Message)
	assert.False(t, started.Resumed)
}

func TestClient_Submit_MapsFeedback(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "A", body["answer"])
		assert.Equal(t, "q-17", body["question_id"])
		assert.Equal(t, true, body["peeked"])

		_, _ = writer.Write([]byte(`{
			"success": true,
			"is_correct": false,
			"user_answer_display": "A",
			"correct_answer_display": "B",
			"question_id": "q-17",
			"current_index": 4
		}`))
	}))

	feedback, err := client.Submit(context.Background(), "A", "q-17", true, false)
	require.NoError(t, err)
	assert.False(t, feedback.IsCorrect)
	assert.Equal(t, "B", feedback.CorrectAnswerDisplay)
	assert.Equal(t, 4, feedback.CurrentIndex)
}

func TestClient_Jump_EncodesIndex(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/practice/jump", request.URL.Path)
		assert.Equal(t, "12", request.URL.Query().Get("index"))
		_, _ = writer.Write([]byte(`{"success": true, "message": "已跳转"}`))
	}))

	message, err := client.Jump(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "已跳转", message)
}

func TestClient_EnvelopeFailureBecomesServerError(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"success": false, "message": "400 Bad Request: 没有进行中的练习"}`))
	}))

	_, err := client.CurrentQuestion(context.Background())
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "SERVER_ERROR", ae.Code)
	assert.Equal(t, "没有进行中的练习", ae.Message)
}

func TestClient_QuestionStatuses(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			"active_run",
			`{"success": true, "active": true, "question_statuses": ["correct", "wrong", "unanswered"]}`,
			[]string{"correct", "wrong", "unanswered"},
		},
		{
			"no_run",
			`{"success": true, "active": false}`,
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, "/api/session/status", request.URL.Path)
				_, _ = writer.Write([]byte(tt.body))
			}))

			statuses, err := client.QuestionStatuses(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, statuses)
		})
	}
}

func TestStatus_Name(t *testing.T) {
	assert.Equal(t, "unanswered", quiz.StatusUnanswered.Name())
	assert.Equal(t, "correct", quiz.StatusCorrect.Name())
	assert.Equal(t, "wrong", quiz.StatusWrong.Name())
	assert.Equal(t, "unknown", quiz.Status(9).Name())
}
