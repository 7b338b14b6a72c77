package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parla-social/parla/internal/apperror"
)

// perPage is the number of audit entries returned per page.
const perPage = 50

// maxUserHistory caps per-account history to keep responses bounded.
const maxUserHistory = 100

// Recorder is the write-side contract consumed by the auth and admin
// services. Record is fire-and-forget: failures are logged, never returned,
// so an audit outage cannot break logins.
type Recorder interface {
	Record(ctx context.Context, event *Event)
}

// Service handles audit log business logic: recording events and serving
// the admin-facing history views.
type Service interface {
	Recorder

	// ListEvents returns a page of all events, newest first. Pages are
	// 1-indexed; invalid page numbers are clamped to 1.
	ListEvents(ctx context.Context, page int) ([]Event, int, error)

	// UserHistory returns the recent events about a single account.
	UserHistory(ctx context.Context, userID int64) ([]Event, error)
}

// service implements Service.
type service struct {
	repo Repository
}

// NewService creates an audit service with the given repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Record persists an event, logging any failure instead of returning it.
func (s *service) Record(ctx context.Context, event *Event) {
	if event.Action == "" || event.UserID == 0 {
		slog.Warn("dropping malformed audit event",
			slog.String("action", event.Action),
			slog.Int64("user_id", event.UserID),
		)
		return
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		slog.Error("failed to write audit event",
			slog.String("action", event.Action),
			slog.Int64("user_id", event.UserID),
			slog.Any("error", err),
		)
	}
}

// ListEvents returns the paginated event feed.
func (s *service) ListEvents(ctx context.Context, page int) ([]Event, int, error) {
	if page < 1 {
		page = 1
	}

	offset := (page - 1) * perPage
	events, total, err := s.repo.List(ctx, perPage, offset)
	if err != nil {
		return nil, 0, apperror.NewStorage(fmt.Errorf("listing audit events: %w", err))
	}

	return events, total, nil
}

// UserHistory returns the recent events about one account.
func (s *service) UserHistory(ctx context.Context, userID int64) ([]Event, error) {
	events, err := s.repo.ListByUser(ctx, userID, maxUserHistory)
	if err != nil {
		return nil, apperror.NewStorage(fmt.Errorf("listing audit history: %w", err))
	}
	return events, nil
}
