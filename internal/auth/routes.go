package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the auth endpoints on the given Echo instance.
// Access control is not configured here: the global Authorize middleware
// consults the RouteClassifier, which classifies the register/login/reset
// endpoints Public and me/password Authenticated.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/auth")

	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me)
	g.POST("/password", h.ChangePassword)
	g.POST("/reset", h.InitiateReset)
	g.POST("/reset/confirm", h.CompleteReset)
}
