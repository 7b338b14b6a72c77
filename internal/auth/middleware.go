package auth

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/parla-social/parla/internal/apperror"
)

// contextKeyAuth is the Echo context key holding the request's AuthContext.
// Downstream collaborators read it via the exported getters below.
const contextKeyAuth = "auth_context"

// Authenticate returns middleware that establishes identity for every
// request, including requests to public routes, so public pages can still
// personalize for a logged-in visitor. It never rejects a request on its
// own: any identity failure (missing cookie, expired or unknown session,
// orphaned session whose user is gone) yields an anonymous AuthContext and
// the request proceeds.
//
// Storage failures are the one exception -- they are propagated so the
// error handler can answer 500 instead of silently degrading an
// authenticated user to anonymous.
func Authenticate(sessions SessionStore, users UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authCtx := &AuthContext{}
			c.Set(contextKeyAuth, authCtx)

			token := readSessionToken(c)
			if token == "" {
				return next(c)
			}

			ctx := c.Request().Context()

			sess, err := sessions.Get(ctx, token)
			if err != nil {
				return err
			}
			if sess == nil {
				// Expired or unknown token: drop the stale cookie so the
				// client stops sending it.
				clearSessionCookie(c)
				return next(c)
			}

			user, err := users.FindByID(ctx, sess.UserID)
			if err != nil {
				return err
			}
			if user == nil {
				// Orphaned session: the account was deleted out from
				// under it. Treat as anonymous and discard the session.
				slog.Warn("session references missing user",
					slog.Int64("user_id", sess.UserID),
				)
				clearSessionCookie(c)
				return next(c)
			}

			authCtx.User = user
			authCtx.Session = sess

			return next(c)
		}
	}
}

// Authorize returns middleware that classifies the request's route and
// evaluates the access policy against the AuthContext established by
// Authenticate. Denials become apperror values; the central error handler
// translates them to the JSON error shape.
func Authorize(classifier *RouteClassifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			policy := classifier.Classify(req.URL.Path, req.Method)

			decision := Decide(policy, Current(c), req.Method)
			if decision.Allowed {
				return next(c)
			}

			switch decision.Reason {
			case DenyBanned:
				return apperror.NewBanned("this account has been banned")
			case DenyForbidden:
				return apperror.NewForbidden("admin access required")
			default:
				return apperror.NewUnauthenticated("authentication required")
			}
		}
	}
}

// --- Exported getters for collaborator handlers ---

// Current returns the request's AuthContext. It is never nil: requests that
// bypassed Authenticate (or failed identity) get an anonymous context.
func Current(c echo.Context) *AuthContext {
	if authCtx, ok := c.Get(contextKeyAuth).(*AuthContext); ok {
		return authCtx
	}
	return &AuthContext{}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c echo.Context) *User {
	return Current(c).User
}

// CurrentSession returns the validated session, or nil for anonymous requests.
func CurrentSession(c echo.Context) *Session {
	return Current(c).Session
}
