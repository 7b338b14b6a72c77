package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the data access contract for audit log operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type Repository interface {
	// Insert writes a new event row and backfills the generated ID.
	Insert(ctx context.Context, event *Event) error

	// List returns paginated events, most recent first, plus the total
	// count for pagination.
	List(ctx context.Context, limit, offset int) ([]Event, int, error)

	// ListByUser returns the most recent events about a single account.
	ListByUser(ctx context.Context, userID int64, limit int) ([]Event, error)
}

// repository implements Repository with MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates an audit repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Insert writes a new audit event. Empty IP/user-agent strings are stored
// as SQL NULL.
func (r *repository) Insert(ctx context.Context, event *Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO audit_log (user_id, actor_id, action, ip_address, user_agent, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		event.UserID,
		event.ActorID,
		event.Action,
		nullable(event.IPAddress),
		nullable(event.UserAgent),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading audit event id: %w", err)
	}
	event.ID = id

	return nil
}

// List returns a page of events, newest first, and the total count.
func (r *repository) List(ctx context.Context, limit, offset int) ([]Event, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting audit events: %w", err)
	}

	query := `SELECT id, user_id, actor_id, action, ip_address, user_agent, created_at
	          FROM audit_log ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByUser returns the most recent events about one account.
func (r *repository) ListByUser(ctx context.Context, userID int64, limit int) ([]Event, error) {
	query := `SELECT id, user_id, actor_id, action, ip_address, user_agent, created_at
	          FROM audit_log WHERE user_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit events for user: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents drains a result set into a slice, mapping NULL metadata
// columns back to empty strings.
func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var ip, ua sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.ActorID, &e.Action, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}
	return events, nil
}

// nullable converts an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
