// Copyright (c) 2026 Kotae. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Kotae.

It provides a rich error type that bridges the gap between upstream call
failures and the responses this tier hands to the browser.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: NETWORK_FAILURE, SERVER_ERROR, AUTH_EXPIRED, VALIDATION_ERROR cover
    every way an upstream call can fail; the remaining codes cover this tier's
    own HTTP surface.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves a component boundary should be wrapped as an [AppError]
to ensure consistent responses.
*/
package apperr

import (
	"errors"
	"net/http"
)

// AppError is the canonical error type for the Kotae client tier.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NETWORK_FAILURE").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Upstream Failure Taxonomy

// NetworkFailure creates a 502 [AppError] for a transport-level fault
// (connection refused, DNS failure, body read error). The user-facing
// message matches what the original client surfaced for a dead network.
func NetworkFailure(cause error) *AppError {
	return &AppError{
		Code:       "NETWORK_FAILURE",
		Message:    "网络请求失败，请检查网络连接",
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// ServerError creates a 502 [AppError] for an upstream non-2xx response
// or a success:false envelope. The message is the already-cleaned server
// message, suitable for display.
func ServerError(msg string) *AppError {
	return &AppError{
		Code:       "SERVER_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
	}
}

// AuthExpired creates a 401 [AppError]. Raised whenever the upstream
// answers 401 on any call, which evicts the local credentials.
func AuthExpired() *AppError {
	return &AppError{
		Code:       "AUTH_EXPIRED",
		Message:    "登录已过期，请重新登录",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # Client Errors (4xx)

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Route") // Returns "Route not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
