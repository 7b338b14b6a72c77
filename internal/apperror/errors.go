// Package apperror provides the domain error types for Parla's identity
// core. Each error carries an HTTP status code and a user-safe message. The
// Echo error handler maps them to structured JSON responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 400, 401, 403, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "unauthenticated").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for the error taxonomy ---

// NewValidation creates a 400 Bad Request error for malformed or invalid
// login/registration input.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "validation",
		Message: message,
	}
}

// NewUnauthenticated creates a 401 Unauthorized error for a missing,
// invalid, or expired session, or wrong credentials. Login failures must
// all share the same message regardless of whether the account exists.
func NewUnauthenticated(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthenticated",
		Message: message,
	}
}

// NewBanned creates a 403 Forbidden error for a banned account. Kept
// distinct from NewForbidden so callers and logs can tell a ban apart from
// an insufficient role.
func NewBanned(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "banned",
		Message: message,
	}
}

// NewForbidden creates a 403 Forbidden error for insufficient role.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "forbidden",
		Message: message,
	}
}

// NewConflict creates a 409 Conflict error (e.g., username already taken).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict",
		Message: message,
	}
}

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewStorage creates a 500 error for persistence failures (connectivity,
// constraint violations, query errors). The real error is stored in
// Internal for server-side logging but the client only sees a generic
// message with no internal detail.
func NewStorage(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "storage",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// NewInternal creates a 500 Internal Server Error for non-storage failures.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
