package admin

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/parla-social/parla/internal/apperror"
	"github.com/parla-social/parla/internal/audit"
	"github.com/parla-social/parla/internal/auth"
)

// Handler handles the HTTP surface for moderation. The AdminOnly policy on
// /api/admin guarantees CurrentUser is a non-banned admin before any of
// these run.
type Handler struct {
	service  Service
	auditLog audit.Service
}

// NewHandler creates an admin handler.
func NewHandler(service Service, auditLog audit.Service) *Handler {
	return &Handler{service: service, auditLog: auditLog}
}

// Users lists accounts (GET /api/admin/users?page=N).
func (h *Handler) Users(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))

	users, total, err := h.service.ListUsers(c.Request().Context(), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
		"total":   total,
	})
}

// Ban bans an account (POST /api/admin/users/:id/ban).
func (h *Handler) Ban(c echo.Context) error {
	return h.setBanned(c, true)
}

// Unban lifts a ban (POST /api/admin/users/:id/unban).
func (h *Handler) Unban(c echo.Context) error {
	return h.setBanned(c, false)
}

func (h *Handler) setBanned(c echo.Context, banned bool) error {
	targetID, err := pathID(c)
	if err != nil {
		return err
	}

	actor := auth.CurrentUser(c)
	if err := h.service.SetBanned(c.Request().Context(), actor, targetID, banned, meta(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// SetRole grants or revokes the admin flag
// (PUT /api/admin/users/:id/role with {"is_admin": bool}).
func (h *Handler) SetRole(c echo.Context) error {
	targetID, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		IsAdmin bool `json:"is_admin" form:"is_admin"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	actor := auth.CurrentUser(c)
	if err := h.service.SetAdmin(c.Request().Context(), actor, targetID, req.IsAdmin, meta(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Audit lists security events (GET /api/admin/audit?page=N).
func (h *Handler) Audit(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))

	events, total, err := h.auditLog.ListEvents(c.Request().Context(), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"events":  events,
		"total":   total,
	})
}

// UserAudit lists events about one account (GET /api/admin/users/:id/audit).
func (h *Handler) UserAudit(c echo.Context) error {
	targetID, err := pathID(c)
	if err != nil {
		return err
	}

	events, err := h.auditLog.UserHistory(c.Request().Context(), targetID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"events":  events,
	})
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("invalid user id")
	}
	return id, nil
}

// meta captures the acting admin's IP and user agent for the audit trail.
func meta(c echo.Context) auth.SessionMetadata {
	return auth.SessionMetadata{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}
