package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parla-social/parla/internal/apperror"
)

// Handler handles the HTTP surface for authentication. Handlers are thin:
// they bind the request, call the service, and shape the JSON response. No
// business logic lives here.
type Handler struct {
	service    AuthService
	sessionTTL time.Duration
}

// NewHandler creates an auth handler with the given service. The session
// TTL is echoed into the cookie's Max-Age so the cookie and the stored
// session expire together.
func NewHandler(service AuthService, sessionTTL time.Duration) *Handler {
	return &Handler{service: service, sessionTTL: sessionTTL}
}

// Register creates an account (POST /api/auth/register) and logs the new
// user straight in by setting the session cookie.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	user, token, err := h.service.Register(c.Request().Context(), req, sessionMeta(c))
	if err != nil {
		return err
	}

	setSessionCookie(c, token, int(h.sessionTTL.Seconds()))

	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"user":    user,
	})
}

// Login authenticates by username or email (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	user, token, err := h.service.Login(c.Request().Context(), req, sessionMeta(c))
	if err != nil {
		return err
	}

	setSessionCookie(c, token, int(h.sessionTTL.Seconds()))

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// Logout destroys the current session (POST /api/auth/logout). Safe to call
// without a session; the cookie is cleared either way.
func (h *Handler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), readSessionToken(c), sessionMeta(c)); err != nil {
		return err
	}

	clearSessionCookie(c)

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Me returns the authenticated user (GET /api/auth/me). The route is
// classified Authenticated, so the guard has already refused anonymous
// requests by the time this runs.
func (h *Handler) Me(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return apperror.NewUnauthenticated("authentication required")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// ChangePassword rotates the current user's password
// (POST /api/auth/password). All sessions are invalidated, including this
// one, so the cookie is cleared and the client must log in again.
func (h *Handler) ChangePassword(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return apperror.NewUnauthenticated("authentication required")
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if err := h.service.ChangePassword(c.Request().Context(), user, req, sessionMeta(c)); err != nil {
		return err
	}

	clearSessionCookie(c)

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// InitiateReset starts a password reset (POST /api/auth/reset). The
// response is identical whether or not the email belongs to an account.
func (h *Handler) InitiateReset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if err := h.service.InitiateReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// CompleteReset redeems a reset token (POST /api/auth/reset/confirm).
func (h *Handler) CompleteReset(c echo.Context) error {
	var req ResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if err := h.service.CompleteReset(c.Request().Context(), req, sessionMeta(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// sessionMeta captures the audit fields recorded alongside sessions and
// events. RealIP respects the trusted proxy configuration.
func sessionMeta(c echo.Context) SessionMetadata {
	return SessionMetadata{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}
