package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parla-social/parla/internal/apperror"
	"github.com/parla-social/parla/internal/audit"
)

// loginFailedMessage is returned for every credential failure. An unknown
// account and a wrong password must produce an identical response so the
// login form cannot be used to enumerate users.
const loginFailedMessage = "invalid credentials"

// resetTokenBytes is the random length of a password reset token.
const resetTokenBytes = 32

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repositories directly.
type AuthService interface {
	// Register creates an account and immediately issues a session for
	// it, returning the created user and session token.
	Register(ctx context.Context, req RegisterRequest, meta SessionMetadata) (*User, string, error)

	// Login authenticates by username-or-email and password, issuing a
	// new session on success.
	Login(ctx context.Context, req LoginRequest, meta SessionMetadata) (*User, string, error)

	// Logout destroys the session for a token. Idempotent: an unknown or
	// already-destroyed token is not an error.
	Logout(ctx context.Context, token string, meta SessionMetadata) error

	// ChangePassword verifies the current password, stores a new hash,
	// and invalidates every outstanding session for the user.
	ChangePassword(ctx context.Context, user *User, req ChangePasswordRequest, meta SessionMetadata) error

	// InitiateReset starts a password reset. It behaves identically
	// whether or not the email belongs to an account.
	InitiateReset(ctx context.Context, email string) error

	// CompleteReset redeems a one-time reset token, stores the new
	// password hash, and invalidates every session for the user.
	CompleteReset(ctx context.Context, req ResetConfirmRequest, meta SessionMetadata) error
}

// authService implements AuthService.
type authService struct {
	users      UserRepository
	sessions   SessionStore
	resets     ResetTokenStore
	notifier   ResetNotifier
	events     audit.Recorder
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewAuthService creates an auth service with the given dependencies.
func NewAuthService(
	users UserRepository,
	sessions SessionStore,
	resets ResetTokenStore,
	notifier ResetNotifier,
	events audit.Recorder,
	sessionTTL, resetTTL time.Duration,
) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		resets:     resets,
		notifier:   notifier,
		events:     events,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

// Register creates a new account. It validates the input, checks username
// and email uniqueness, hashes the password, persists the user, and issues
// the first session so registration doubles as login.
func (s *authService) Register(ctx context.Context, req RegisterRequest, meta SessionMetadata) (*User, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if msg := validateRegistration(req); msg != "" {
		return nil, "", apperror.NewValidation(msg)
	}

	// Uniqueness checks happen before the expensive hash.
	taken, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", apperror.NewConflict("username is already taken")
	}

	taken, err = s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", apperror.NewConflict("an account with this email already exists")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, "", apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Create(ctx, user.ID, s.sessionTTL, meta)
	if err != nil {
		return nil, "", err
	}

	s.events.Record(ctx, &audit.Event{
		UserID:    user.ID,
		Action:    audit.ActionRegister,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, token, nil
}

// Login authenticates a user by username or email. Unknown accounts and
// wrong passwords fail with one shared message; banned accounts are
// refused outright.
func (s *authService) Login(ctx context.Context, req LoginRequest, meta SessionMetadata) (*User, string, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, "", apperror.NewValidation("login and password are required")
	}

	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", apperror.NewUnauthenticated(loginFailedMessage)
	}

	if !VerifyPassword(req.Password, user.PasswordHash) {
		return nil, "", apperror.NewUnauthenticated(loginFailedMessage)
	}

	if user.IsBanned {
		return nil, "", apperror.NewBanned("this account has been banned")
	}

	token, err := s.sessions.Create(ctx, user.ID, s.sessionTTL, meta)
	if err != nil {
		return nil, "", err
	}

	s.events.Record(ctx, &audit.Event{
		UserID:    user.ID,
		Action:    audit.ActionLogin,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, token, nil
}

// Logout destroys a session by token. Destroying a token that never
// existed, or was already destroyed, succeeds quietly.
func (s *authService) Logout(ctx context.Context, token string, meta SessionMetadata) error {
	if token == "" {
		return nil
	}

	// Look the session up first so the event can name the account. A miss
	// still proceeds to the (idempotent) delete.
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}

	if sess != nil {
		s.events.Record(ctx, &audit.Event{
			UserID:    sess.UserID,
			Action:    audit.ActionLogout,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
	}

	return nil
}

// ChangePassword rotates a user's password. Every outstanding session is
// destroyed so a stolen session cannot survive the rotation; the caller
// must log in again.
func (s *authService) ChangePassword(ctx context.Context, user *User, req ChangePasswordRequest, meta SessionMetadata) error {
	if !VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return apperror.NewUnauthenticated("current password is incorrect")
	}

	if msg := validatePassword(req.NewPassword); msg != "" {
		return apperror.NewValidation(msg)
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}

	s.events.Record(ctx, &audit.Event{
		UserID:    user.ID,
		Action:    audit.ActionPasswordChanged,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

// InitiateReset issues a one-time reset token for the account behind an
// email address. Unknown emails return success just the same, so the
// endpoint cannot confirm whether an address is registered.
func (s *authService) InitiateReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperror.NewValidation("email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := GenerateToken(resetTokenBytes)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("generating reset token: %w", err))
	}

	// Only the hash is stored; the plaintext token exists in the delivery
	// channel and nowhere else.
	if err := s.resets.Save(ctx, HashResetToken(token), user.ID, s.resetTTL); err != nil {
		return err
	}

	if err := s.notifier.Notify(ctx, user.Email, token); err != nil {
		slog.Error("failed to deliver reset token",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

// CompleteReset redeems a reset token. The token is single-use: redeeming
// consumes it atomically, and all sessions for the account are destroyed.
func (s *authService) CompleteReset(ctx context.Context, req ResetConfirmRequest, meta SessionMetadata) error {
	if req.Token == "" {
		return apperror.NewValidation("reset token is required")
	}
	if msg := validatePassword(req.Password); msg != "" {
		return apperror.NewValidation(msg)
	}

	userID, err := s.resets.Consume(ctx, HashResetToken(req.Token))
	if err != nil {
		return err
	}
	if userID == 0 {
		return apperror.NewValidation("invalid or expired reset token")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}

	s.events.Record(ctx, &audit.Event{
		UserID:    userID,
		Action:    audit.ActionPasswordReset,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

// --- Validation helpers ---

// validateRegistration checks the registration input. Returns an error
// message or empty string.
func validateRegistration(req RegisterRequest) string {
	if req.Username == "" {
		return "username is required"
	}
	if len(req.Username) < 3 {
		return "username must be at least 3 characters"
	}
	if len(req.Username) > 30 {
		return "username must be at most 30 characters"
	}
	if strings.ContainsAny(req.Username, " \t\n") {
		return "username must not contain spaces"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return "a valid email address is required"
	}
	return validatePassword(req.Password)
}

// validatePassword checks password length bounds.
func validatePassword(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(password) > 128 {
		return "password must be at most 128 characters"
	}
	return ""
}
