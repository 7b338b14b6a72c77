// Package audit records security-relevant account events: logins, logouts,
// registrations, password changes, and moderation actions. Each event is
// persisted to the audit_log table with the client IP and user agent so
// admins can reconstruct what happened to an account and when.
//
// Recording is fire-and-forget: an audit failure is logged but never blocks
// the operation that triggered it.
package audit

import "time"

// --- Action Constants ---
// Each action string follows the pattern "area.verb" for consistent
// filtering and display grouping.

const (
	// ActionRegister is recorded when a new account is created.
	ActionRegister = "auth.register"

	// ActionLogin is recorded on every successful login.
	ActionLogin = "auth.login"

	// ActionLogout is recorded when a session is destroyed by its owner.
	ActionLogout = "auth.logout"

	// ActionPasswordChanged is recorded when a logged-in user changes
	// their password.
	ActionPasswordChanged = "auth.password_changed"

	// ActionPasswordReset is recorded when a password reset completes.
	ActionPasswordReset = "auth.password_reset"

	// ActionUserBanned is recorded when an admin bans an account.
	ActionUserBanned = "admin.user_banned"

	// ActionUserUnbanned is recorded when an admin lifts a ban.
	ActionUserUnbanned = "admin.user_unbanned"

	// ActionRoleChanged is recorded when a superadmin grants or revokes
	// the admin flag.
	ActionRoleChanged = "admin.role_changed"
)

// Event is a single recorded entry in the audit log. UserID is the account
// the event is about; for moderation actions ActorID is the admin who
// performed it (nil for self-service events).
type Event struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ActorID   *int64    `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
