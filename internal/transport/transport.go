// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package transport implements the credentialed HTTP client for the upstream
quiz backend.

Every call in this tier goes through one [Client]: it owns the cookie jar
that carries the upstream session lease, serializes JSON bodies, and folds
every possible outcome — transport fault, HTTP error status, success:false
envelope — into a plain [Result] value.

# Contract

  - Never panics and never returns a Go error for an upstream failure; the
    failure is encoded in the returned [Result].
  - A 401 from ANY endpoint fires the registered auth-expired hook before
    returning, so stale credentials are evicted without waiting for the
    caller to inspect the result.
  - Server error strings arrive as "NNN StatusText: actual message"; the
    numeric prefix is stripped before the message is surfaced.
*/
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"sync"
	"time"

	"github.com/taibuivan/kotae/internal/platform/apperr"
	"github.com/taibuivan/kotae/internal/platform/constants"
	"github.com/taibuivan/kotae/internal/platform/ctxutil"
)

// # User-Facing Messages

const (
	// MsgNetworkFailure is shown when the backend is unreachable.
	MsgNetworkFailure = "网络请求失败，请检查网络连接"

	// MsgAuthExpired is shown when any call answers 401.
	MsgAuthExpired = "登录已过期，请重新登录"
)

// statusPrefix matches the "NNN StatusText: " prefix some upstream error
// strings carry, e.g. "401 Unauthorized: 用户名或密码错误".
var statusPrefix = regexp.MustCompile(`^\d{3} [^:]+:\s*`)

// # Normalized Outcome

// Result is the normalized outcome of one upstream call. It mirrors the
// {success, message, error} envelope every endpoint of the backend speaks.
type Result struct {
	// Success reports whether the call completed AND the server envelope
	// said success:true.
	Success bool
	// Message is a cleaned, display-ready description of the outcome.
	Message string
	// Err carries transport-level detail for logging; never shown to users.
	Err string
	// Status is the HTTP status code, or 0 when the request never completed.
	Status int
}

// Failed reports whether the call did not succeed.
func (r Result) Failed() bool { return !r.Success }

// AuthExpired reports whether the upstream rejected the session lease.
func (r Result) AuthExpired() bool { return r.Status == http.StatusUnauthorized }

// AsError folds a failed outcome into the application error taxonomy; a
// successful outcome folds to nil. Calls that never reached the server
// carry Status 0 and become network failures.
func (r Result) AsError() error {
	if !r.Failed() {
		return nil
	}
	switch {
	case r.AuthExpired():
		return apperr.AuthExpired()
	case r.Status == 0:
		return apperr.NetworkFailure(errors.New(r.Err))
	default:
		return apperr.ServerError(r.Message)
	}
}

// wireEnvelope is the minimal shape decoded from every response body to
// populate a [Result], independent of the endpoint payload.
type wireEnvelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// # Client

// Client performs credentialed JSON requests against the upstream backend.
//
// # Concurrency
//
// Client is safe for concurrent use. The cookie jar is shared by all calls
// made through the same instance, so one Client corresponds to exactly one
// browser identity.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	hookMu        sync.RWMutex
	onAuthExpired func()
}

// New constructs a [Client] for the given upstream base URL.
//
// The per-request timeout mirrors the original client configuration (10s by
// default); polling loops elsewhere are bounded separately.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// OnAuthExpired registers the hook fired when any call answers 401.
// The auth store registers its emergency reset here; registration happens
// once during wiring, before the client is shared.
func (c *Client) OnAuthExpired(hook func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onAuthExpired = hook
}

// # Request Execution

// Get performs a credentialed GET and decodes the body into out (may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) Result {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// Post performs a credentialed POST with a JSON body (may be nil) and
// decodes the response into out (may be nil).
func (c *Client) Post(ctx context.Context, path string, body any, out any) Result {
	if body == nil {
		return c.do(ctx, http.MethodPost, path, nil, "application/json", out)
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(encoded), "application/json", out)
}

// Put performs a credentialed PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, out any) Result {
	encoded, err := json.Marshal(body)
	if err != nil {
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
	}
	return c.do(ctx, http.MethodPut, path, bytes.NewReader(encoded), "application/json", out)
}

// Delete performs a credentialed DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) Result {
	return c.do(ctx, http.MethodDelete, path, nil, "", out)
}

// PostMultipart uploads a file with accompanying form fields.
//
// The Content-Type is set by the multipart writer (boundary included); the
// JSON Content-Type is deliberately NOT applied here, matching how the
// upstream expects its admin upload endpoints to be called.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader, out any) Result {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
		}
	}

	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
	}
	if _, err := io.Copy(part, file); err != nil {
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
	}
	if err := writer.Close(); err != nil {
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
	}

	return c.do(ctx, http.MethodPost, path, &buffer, writer.FormDataContentType(), out)
}

// do executes one request and folds the outcome into a [Result].
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) Result {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
	}

	// Headers the original client sent on every credentialed call.
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Requested-With", "XMLHttpRequest")
	request.Header.Set("Cache-Control", "no-cache")
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	// Forward the correlation ID so one browser action traces across tiers.
	if rid := ctxutil.GetRequestID(ctx); rid != "" {
		request.Header.Set(constants.HeaderXRequestID, rid)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		// Transport fault: connection refused, DNS, timeout. Never raised.
		c.logger.WarnContext(ctx, "upstream_unreachable",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error()}
	}
	defer func() { _ = response.Body.Close() }()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error(), Status: response.StatusCode}
	}

	// The session lease died underneath us. Evict local credentials via the
	// side channel before the caller even sees the result.
	if response.StatusCode == http.StatusUnauthorized {
		c.fireAuthExpired()
		return Result{
			Success: false,
			Message: MsgAuthExpired,
			Err:     extractServerMessage(raw, response.StatusCode),
			Status:  response.StatusCode,
		}
	}

	if response.StatusCode >= 400 {
		return Result{
			Success: false,
			Message: extractServerMessage(raw, response.StatusCode),
			Status:  response.StatusCode,
		}
	}

	// 2xx: decode the endpoint payload, then the generic envelope.
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return Result{Success: false, Message: MsgNetworkFailure, Err: err.Error(), Status: response.StatusCode}
		}
	}

	var envelope wireEnvelope
	_ = json.Unmarshal(raw, &envelope)

	// Bodies without an explicit success flag are success by virtue of 2xx.
	success := envelope.Success == nil || *envelope.Success
	message := CleanServerMessage(envelope.Message)
	if !success && message == "" {
		message = CleanServerMessage(envelope.Error)
	}

	return Result{
		Success: success,
		Message: message,
		Err:     envelope.Error,
		Status:  response.StatusCode,
	}
}

// fireAuthExpired invokes the 401 hook if one is registered.
func (c *Client) fireAuthExpired() {
	c.hookMu.RLock()
	hook := c.onAuthExpired
	c.hookMu.RUnlock()

	if hook != nil {
		hook()
	}
}

// # Message Normalization

// CleanServerMessage strips the "NNN StatusText: " prefix some upstream
// error strings carry, leaving only the display-ready message.
func CleanServerMessage(message string) string {
	return statusPrefix.ReplaceAllString(message, "")
}

// extractServerMessage pulls the best display message out of an error body,
// falling back to the HTTP status text when the body is not an envelope.
func extractServerMessage(raw []byte, status int) string {
	var envelope wireEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return CleanServerMessage(envelope.Message)
		}
		if envelope.Error != "" {
			return CleanServerMessage(envelope.Error)
		}
	}
	return http.StatusText(status)
}
