// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

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
	"github.com/taibuivan/kotae/internal/profile"
	"github.com/taibuivan/kotae/internal/session"
	"github.com/taibuivan/kotae/internal/transport"
)

func newClient(t *testing.T, handler http.Handler) *profile.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient, err := transport.New(server.URL, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return profile.NewClient(httpClient)
}

func TestInfo_DecodesFullRecord(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, "/api/profile/info", request.URL.Path)
		_, _ = writer.Write([]byte(`{
			"success": true,
			"user": {
				"id": 42,
				"username": "shirayuki",
				"email": "shirayuki@example.edu",
				"student_id": "20230042",
				"major": "网络工程",
				"grade": 2023,
				"is_enabled": true,
				"created_at": "2026-01-10T08:00:00",
				"last_time_login": "2026-08-28T21:15:00",
				"model": 5
			}
		}`))
	}))

	record, err := client.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.ID)
	assert.Equal(t, "shirayuki", record.Username)
	require.NotNil(t, record.Grade)
	assert.Equal(t, 2023, *record.Grade)
	assert.Equal(t, session.AccessVIP, record.Model)
}

func TestInfo_MissingAccountIsNotFound(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"success": false, "error": "用户信息不存在"}`))
	}))

	_, err := client.Info(context.Background())
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
	assert.Equal(t, http.StatusNotFound, ae.HTTPStatus)
}

func TestSave_SendsOnlyProvidedFields(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPut, request.Method)
		assert.Equal(t, "/api/profile/info", request.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "网络工程", body["major"])
		assert.NotContains(t, body, "username")
		assert.NotContains(t, body, "email")
		assert.NotContains(t, body, "grade")

		_, _ = writer.Write([]byte(`{"success": true, "message": "个人信息更新成功"}`))
	}))

	major := "网络工程"
	message, err := client.Save(context.Background(), profile.Update{Major: &major})
	require.NoError(t, err)
	assert.Equal(t, "个人信息更新成功", message)
}

func TestSave_UpstreamRefusalCarriesMessage(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(`{"success": false, "error": "用户名已被占用"}`))
	}))

	username := "taken"
	_, err := client.Save(context.Background(), profile.Update{Username: &username})
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "用户名已被占用", ae.Message)
}

func TestChangePassword_SendsWireKeys(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPut, request.Method)
		assert.Equal(t, "/api/profile/password", request.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "old-pass1", body["currentPassword"])
		assert.Equal(t, "next-pass2", body["newPassword"])
		assert.Equal(t, "next-pass2", body["confirmPassword"])

		_, _ = writer.Write([]byte(`{"success": true, "message": "密码修改成功"}`))
	}))

	message, err := client.ChangePassword(context.Background(), "old-pass1", "next-pass2", "next-pass2")
	require.NoError(t, err)
	assert.Equal(t, "密码修改成功", message)
}

func TestUpdate_Empty(t *testing.T) {
	assert.True(t, profile.Update{}.Empty())

	grade := 2024
	assert.False(t, profile.Update{Grade: &grade}.Empty())
}
