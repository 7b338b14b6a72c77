package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parla-social/parla/internal/admin"
	"github.com/parla-social/parla/internal/audit"
	"github.com/parla-social/parla/internal/auth"
)

// RegisterRoutes builds the repositories, stores, and services, installs
// the identity middleware, and registers every route. This is the single
// place where the dependency graph is assembled.
//
// The collaborator surfaces (posts, comments, likes, follows) register
// their handlers here too once they exist; they read identity through
// auth.CurrentUser and rely on the same route classification.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Wiring ---

	users := auth.NewUserRepository(a.DB)
	sessions := auth.NewSessionStore(a.DB)
	resets := auth.NewResetTokenStore(a.Redis)

	auditLog := audit.NewService(audit.NewRepository(a.DB))

	authService := auth.NewAuthService(
		users,
		sessions,
		resets,
		&auth.LogNotifier{BaseURL: a.Config.BaseURL},
		auditLog,
		a.Config.Auth.SessionTTL,
		a.Config.Auth.ResetTokenTTL,
	)

	adminService := admin.NewService(users, auditLog)

	// --- Identity middleware ---
	// Authenticate runs on every request, even public ones, so handlers
	// can personalize for a logged-in visitor. Authorize then evaluates
	// the route's access policy against the established context.
	e.Use(auth.Authenticate(sessions, users))
	e.Use(auth.Authorize(auth.NewRouteClassifier()))

	// --- Public routes ---

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})

	// --- Feature routes ---

	auth.RegisterRoutes(e, auth.NewHandler(authService, a.Config.Auth.SessionTTL))
	admin.RegisterRoutes(e, admin.NewHandler(adminService, auditLog))
}
