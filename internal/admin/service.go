// Package admin provides the moderation surface: banning and unbanning
// accounts, granting and revoking the admin role, and browsing users and
// the audit log. Every route lives under /api/admin, which the route
// classifier marks AdminOnly.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parla-social/parla/internal/apperror"
	"github.com/parla-social/parla/internal/audit"
	"github.com/parla-social/parla/internal/auth"
)

// usersPerPage is the page size for the user listing.
const usersPerPage = 50

// Service defines the moderation business logic. The acting admin is
// passed explicitly so role rules are enforced here, not in handlers.
type Service interface {
	// ListUsers returns a page of accounts, newest first. Pages are
	// 1-indexed; invalid pages are clamped to 1.
	ListUsers(ctx context.Context, page int) ([]auth.User, int, error)

	// SetBanned bans or unbans an account. The target's sessions are
	// deliberately left in place: the authorization guard re-checks the
	// flag on every request, so the ban takes effect immediately anyway.
	SetBanned(ctx context.Context, actor *auth.User, targetID int64, banned bool, meta auth.SessionMetadata) error

	// SetAdmin grants or revokes the admin flag. Superadmin only.
	SetAdmin(ctx context.Context, actor *auth.User, targetID int64, admin bool, meta auth.SessionMetadata) error
}

// service implements Service.
type service struct {
	users  auth.UserRepository
	events audit.Recorder
}

// NewService creates a moderation service with the given dependencies.
func NewService(users auth.UserRepository, events audit.Recorder) Service {
	return &service{users: users, events: events}
}

// ListUsers returns a page of accounts for the admin user table.
func (s *service) ListUsers(ctx context.Context, page int) ([]auth.User, int, error) {
	if page < 1 {
		page = 1
	}
	return s.users.List(ctx, (page-1)*usersPerPage, usersPerPage)
}

// SetBanned toggles the ban flag on an account.
func (s *service) SetBanned(ctx context.Context, actor *auth.User, targetID int64, banned bool, meta auth.SessionMetadata) error {
	target, err := s.loadTarget(ctx, actor, targetID)
	if err != nil {
		return err
	}

	// Superadmins are only touchable by other superadmins; nobody out-
	// ranks them through the ban button.
	if target.IsSuperadmin && !actor.IsSuperadmin {
		return apperror.NewForbidden("cannot moderate a superadmin account")
	}

	if err := s.users.SetBanned(ctx, targetID, banned); err != nil {
		return err
	}

	action := audit.ActionUserBanned
	if !banned {
		action = audit.ActionUserUnbanned
	}
	s.events.Record(ctx, &audit.Event{
		UserID:    targetID,
		ActorID:   &actor.ID,
		Action:    action,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	slog.Info("ban flag updated",
		slog.Int64("target_id", targetID),
		slog.Int64("actor_id", actor.ID),
		slog.Bool("banned", banned),
	)

	return nil
}

// SetAdmin toggles the admin flag on an account. Role changes are reserved
// for superadmins so a compromised admin account cannot mint more admins.
func (s *service) SetAdmin(ctx context.Context, actor *auth.User, targetID int64, admin bool, meta auth.SessionMetadata) error {
	if !actor.IsSuperadmin {
		return apperror.NewForbidden("only a superadmin can change roles")
	}

	target, err := s.loadTarget(ctx, actor, targetID)
	if err != nil {
		return err
	}

	if target.IsSuperadmin {
		return apperror.NewForbidden("superadmin roles cannot be changed here")
	}

	if err := s.users.SetAdmin(ctx, targetID, admin); err != nil {
		return err
	}

	s.events.Record(ctx, &audit.Event{
		UserID:    targetID,
		ActorID:   &actor.ID,
		Action:    audit.ActionRoleChanged,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

// loadTarget fetches the target account and applies the shared rules:
// the target must exist and must not be the actor themselves.
func (s *service) loadTarget(ctx context.Context, actor *auth.User, targetID int64) (*auth.User, error) {
	if targetID == actor.ID {
		return nil, apperror.NewValidation("cannot moderate your own account")
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperror.NewNotFound(fmt.Sprintf("user %d not found", targetID))
	}
	return target, nil
}
