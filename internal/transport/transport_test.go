// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package transport_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kotae/internal/platform/apperr"
	"github.com/taibuivan/kotae/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, baseURL string) *transport.Client {
	t.Helper()
	client, err := transport.New(baseURL, 0, testLogger())
	require.NoError(t, err)
	return client
}

// # Message Normalization

func TestCleanServerMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"status_prefix_stripped", "401 Unauthorized: 用户名或密码错误", "用户名或密码错误"},
		{"bad_request_prefix", "400 Bad Request: 缺少科目ID", "缺少科目ID"},
		{"no_prefix_untouched", "登录失败", "登录失败"},
		{"empty", "", ""},
		{"digits_mid_string_kept", "错误代码 500 发生", "错误代码 500 发生"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, transport.CleanServerMessage(tt.input))
		})
	}
}

// # Success Path

func TestClient_Get_DecodesEnvelopeAndPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "XMLHttpRequest", request.Header.Get("X-Requested-With"))
		assert.Equal(t, "application/json", request.Header.Get("Accept"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"success": true, "message": "ok", "value": 7}`))
	}))
	defer server.Close()

	var payload struct {
		Value int `json:"value"`
	}
	result := newClient(t, server.URL).Get(context.Background(), "/thing", &payload)

	assert.True(t, result.Success)
	assert.Equal(t, "ok", result.Message)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, 7, payload.Value)
}

func TestClient_Get_MissingSuccessFlagCountsAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"active": true}`))
	}))
	defer server.Close()

	result := newClient(t, server.URL).Get(context.Background(), "/status", nil)
	assert.True(t, result.Success)
}

func TestClient_Get_EnvelopeFailureOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"success": false, "message": "400 Bad Request: 没有进行中的练习"}`))
	}))
	defer server.Close()

	result := newClient(t, server.URL).Get(context.Background(), "/practice/question", nil)

	assert.True(t, result.Failed())
	assert.Equal(t, "没有进行中的练习", result.Message)
}

// # Error Paths

func TestClient_ErrorStatus_ExtractsServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(`{"success": false, "error": "400 Bad Request: 缺少科目ID"}`))
	}))
	defer server.Close()

	result := newClient(t, server.URL).Post(context.Background(), "/upload", nil, nil)

	assert.True(t, result.Failed())
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, "缺少科目ID", result.Message)
}

func TestClient_ErrorStatus_NonJSONBodyFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		_, _ = writer.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	result := newClient(t, server.URL).Get(context.Background(), "/thing", nil)

	assert.True(t, result.Failed())
	assert.Equal(t, "Bad Gateway", result.Message)
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
	server.Close() // connection refused from here on

	result := newClient(t, server.URL).Get(context.Background(), "/thing", nil)

	assert.True(t, result.Failed())
	assert.Equal(t, transport.MsgNetworkFailure, result.Message)
	assert.Zero(t, result.Status)
	assert.NotEmpty(t, result.Err)
}

// # 401 Side Channel

func TestClient_Unauthorized_FiresHookAndNormalizesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte(`{"success": false, "message": "401 Unauthorized: session expired"}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)

	fired := 0
	client.OnAuthExpired(func() { fired++ })

	result := client.Get(context.Background(), "/auth/user", nil)

	assert.Equal(t, 1, fired)
	assert.True(t, result.AuthExpired())
	assert.Equal(t, transport.MsgAuthExpired, result.Message)
	assert.Equal(t, "session expired", result.Err)
}

func TestClient_Unauthorized_NoHookRegistered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	// Must not panic without a hook.
	result := newClient(t, server.URL).Get(context.Background(), "/auth/check", nil)
	assert.True(t, result.AuthExpired())
}

// # Error Folding

func TestResult_AsError(t *testing.T) {
	tests := []struct {
		name         string
		result       transport.Result
		expectedCode string
	}{
		{"success_is_nil", transport.Result{Success: true, Status: 200}, ""},
		{"unauthorized", transport.Result{Status: 401}, "AUTH_EXPIRED"},
		{"never_reached_server", transport.Result{Status: 0, Err: "dial refused"}, "NETWORK_FAILURE"},
		{"upstream_refusal", transport.Result{Status: 400, Message: "缺少科目ID"}, "SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.AsError()
			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.expectedCode, ae.Code)
		})
	}
}

// # Cookies

func TestClient_CookieJarCarriesLeaseAcrossCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/auth/login":
			http.SetCookie(writer, &http.Cookie{Name: "session", Value: "lease-1", Path: "/"})
			_, _ = writer.Write([]byte(`{"success": true}`))
		default:
			cookie, err := request.Cookie("session")
			if err != nil || cookie.Value != "lease-1" {
				writer.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = writer.Write([]byte(`{"success": true}`))
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL)

	require.True(t, client.Post(context.Background(), "/auth/login", map[string]string{"username": "u"}, nil).Success)
	assert.True(t, client.Get(context.Background(), "/auth/user", nil).Success)
}

// # Multipart

func TestClient_PostMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		require.NoError(t, request.ParseMultipartForm(1<<20))
		assert.Equal(t, "3", request.FormValue("subject_id"))

		file, header, err := request.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "bank.xlsx", header.Filename)

		_, _ = writer.Write([]byte(`{"success": true, "message": "导入成功"}`))
	}))
	defer server.Close()

	result := newClient(t, server.URL).PostMultipart(
		context.Background(),
		"/api/admin/tiku/upload",
		map[string]string{"subject_id": "3"},
		"file", "bank.xlsx", strings.NewReader("spreadsheet-bytes"),
		nil,
	)

	assert.True(t, result.Success)
	assert.Equal(t, "导入成功", result.Message)
}
