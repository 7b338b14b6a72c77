package admin

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the moderation routes. The /api/admin prefix is
// classified AdminOnly by the route table, so no per-route middleware is
// needed here.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/admin")

	g.GET("/users", h.Users)
	g.POST("/users/:id/ban", h.Ban)
	g.POST("/users/:id/unban", h.Unban)
	g.PUT("/users/:id/role", h.SetRole)
	g.GET("/users/:id/audit", h.UserAudit)
	g.GET("/audit", h.Audit)
}
