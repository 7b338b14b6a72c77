// Package auth is Parla's identity and access-control core: password
// hashing, session issuance and validation, cookie encoding, route
// classification, and request authorization. Every other feature of the
// platform (posts, comments, likes, follows, admin tools) consumes the
// AuthContext this package attaches to each request.
//
// Sessions are opaque random tokens looked up in MariaDB on every request.
// There is deliberately no in-process session cache: a ban or logout takes
// effect on the very next request.
package auth

import (
	"time"
)

// User represents a registered Parla account. This is the domain model used
// throughout the application. Database scanning and JSON marshaling use this
// struct directly.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	IsAdmin      bool      `json:"is_admin"`
	IsSuperadmin bool      `json:"is_superadmin"`
	IsBanned     bool      `json:"is_banned"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the proof-of-authentication record persisted in the
// user_sessions table. The token is the primary lookup key. A session is
// valid iff the row exists and expires_at is strictly in the future at read
// time; expired rows may linger in storage but are never treated as valid.
type Session struct {
	Token     string    `json:"-"` // Never expose: the token IS the credential.
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UserAgent *string   `json:"user_agent,omitempty"`
	IPAddress *string   `json:"ip_address,omitempty"`
}

// SessionMetadata carries optional audit fields recorded when a session is
// created. Empty strings are stored as SQL NULL.
type SessionMetadata struct {
	UserAgent string
	IPAddress string
}

// AuthContext is the request-scoped result of authentication. It is rebuilt
// from persistent storage on every request and never cached across requests.
// Both fields are nil for anonymous requests.
type AuthContext struct {
	User    *User
	Session *Session
}

// IsAuthenticated returns true if the request carries a valid session.
func (a *AuthContext) IsAuthenticated() bool {
	return a != nil && a.User != nil
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted to POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginRequest holds the data submitted to POST /api/auth/login. Login
// accepts either the username or the email address.
type LoginRequest struct {
	Login    string `json:"login" form:"login"`
	Password string `json:"password" form:"password"`
}

// ChangePasswordRequest holds the data submitted to POST /api/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

// ResetRequest holds the data submitted to POST /api/auth/reset.
type ResetRequest struct {
	Email string `json:"email" form:"email"`
}

// ResetConfirmRequest holds the data submitted to POST /api/auth/reset/confirm.
type ResetConfirmRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}
