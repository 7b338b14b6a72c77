package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/parla-social/parla/internal/apperror"
	"github.com/parla-social/parla/internal/config"
)

// SessionStore persists and looks up sessions in the shared relational
// store. Lookups enforce expiry at read time: an expired row is reported as
// absent regardless of whether storage cleanup has run.
//
// Miss semantics: Get returns (nil, nil) for an unknown or expired token.
// Errors are reserved for storage failures and arrive as apperror storage
// errors, so callers can always tell "not logged in" from "database down".
type SessionStore interface {
	// Create generates a fresh token, persists the session with
	// expires_at = now + ttl, and returns the token. TTL must be positive
	// and within the configured bounds.
	Create(ctx context.Context, userID int64, ttl time.Duration, meta SessionMetadata) (string, error)

	// Get returns the session for a token, or (nil, nil) when the token
	// is unknown or the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session. Deleting a non-existent token is not an
	// error: logout is idempotent.
	Delete(ctx context.Context, token string) error

	// DeleteAllForUser invalidates every outstanding session for a user.
	// Used after password resets and account-security events.
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// sessionStore implements SessionStore with hand-written MariaDB queries.
type sessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a session store backed by the given DB pool.
func NewSessionStore(db *sql.DB) SessionStore {
	return &sessionStore{db: db}
}

// Create inserts a new session row keyed by a freshly generated token.
func (s *sessionStore) Create(ctx context.Context, userID int64, ttl time.Duration, meta SessionMetadata) (string, error) {
	if ttl < config.MinSessionTTL || ttl > config.MaxSessionTTL {
		return "", apperror.NewInternal(fmt.Errorf("session ttl %s out of bounds", ttl))
	}

	token, err := GenerateToken(TokenBytes)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("generating session token: %w", err))
	}

	now := time.Now().UTC()
	query := `INSERT INTO user_sessions (token, user_id, expires_at, created_at, user_agent, ip_address)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		token,
		userID,
		now.Add(ttl),
		now,
		nullable(meta.UserAgent),
		nullable(meta.IPAddress),
	)
	if err != nil {
		return "", apperror.NewStorage(fmt.Errorf("inserting session: %w", err))
	}

	return token, nil
}

// Get looks up a session by token. The expiry check lives in the query
// itself so no stale row can ever be treated as valid, even before any
// cleanup sweep has removed it.
func (s *sessionStore) Get(ctx context.Context, token string) (*Session, error) {
	query := `SELECT token, user_id, expires_at, created_at, user_agent, ip_address
	          FROM user_sessions WHERE token = ? AND expires_at > NOW()`

	sess := &Session{}
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&sess.Token,
		&sess.UserID,
		&sess.ExpiresAt,
		&sess.CreatedAt,
		&sess.UserAgent,
		&sess.IPAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewStorage(fmt.Errorf("querying session: %w", err))
	}

	return sess, nil
}

// Delete removes a session row. Affecting zero rows is fine.
func (s *sessionStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE token = ?`, token)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("deleting session: %w", err))
	}
	return nil
}

// DeleteAllForUser removes every session row belonging to a user in a
// single statement, so from the caller's perspective the invalidation is
// atomic.
func (s *sessionStore) DeleteAllForUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("deleting sessions for user: %w", err))
	}
	return nil
}

// nullable converts an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
