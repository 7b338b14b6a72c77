package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/parla-social/parla/internal/apperror"
)

// UserRepository defines the data access contract for user records. All SQL
// lives in the concrete implementation -- no SQL leaks out.
//
// Finder miss semantics match SessionStore: (nil, nil) when no row matches,
// apperror storage errors only for query failures.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByLogin resolves a username OR an email address in one query.
	// The login form accepts either.
	FindByLogin(ctx context.Context, login string) (*User, error)

	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Moderation operations, used by the admin surface.
	SetBanned(ctx context.Context, id int64, banned bool) error
	SetAdmin(ctx context.Context, id int64, admin bool) error
	List(ctx context.Context, offset, limit int) ([]User, int, error)
}

// userColumns is the scan list shared by the single-row finders.
const userColumns = `id, username, email, password_hash, is_admin, is_superadmin, is_banned, created_at`

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row and backfills the generated ID.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (username, email, password_hash, is_admin, is_superadmin, is_banned, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.IsSuperadmin,
		user.IsBanned,
		user.CreatedAt,
	)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("inserting user: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("reading inserted user id: %w", err))
	}
	user.ID = id

	return nil
}

// FindByID retrieves a user by primary key.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "querying user by id")
}

// FindByEmail retrieves a user by email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email), "querying user by email")
}

// FindByLogin retrieves a user by username or email, whichever matches.
func (r *userRepository) FindByLogin(ctx context.Context, login string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, login, login), "querying user by login")
}

// scanOne scans a single user row, mapping sql.ErrNoRows to (nil, nil).
func (r *userRepository) scanOne(row *sql.Row, op string) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.IsSuperadmin,
		&user.IsBanned,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewStorage(fmt.Errorf("%s: %w", op, err))
	}
	return user, nil
}

// UsernameExists returns true if the username is already taken. Used during
// registration to check for duplicates before the expensive hash.
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, apperror.NewStorage(fmt.Errorf("checking username existence: %w", err))
	}
	return exists, nil
}

// EmailExists returns true if a user with the given email already exists.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, apperror.NewStorage(fmt.Errorf("checking email existence: %w", err))
	}
	return exists, nil
}

// UpdatePassword sets a new password hash for a user.
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("updating password: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// SetBanned sets or clears the is_banned flag. Sessions are left intact:
// the authorization guard re-reads the flag on every request, so the ban
// bites on the user's very next request.
func (r *userRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_banned = ? WHERE id = ?`, banned, id)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("updating is_banned: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// SetAdmin sets or clears the is_admin flag.
func (r *userRepository) SetAdmin(ctx context.Context, id int64, admin bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE id = ?`, admin, id)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("updating is_admin: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// List returns a page of users ordered by creation date, newest first,
// along with the total count for pagination.
func (r *userRepository) List(ctx context.Context, offset, limit int) ([]User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, apperror.NewStorage(fmt.Errorf("counting users: %w", err))
	}

	// password_hash is deliberately excluded: list views never need
	// credential material.
	query := `SELECT id, username, email, is_admin, is_superadmin, is_banned, created_at
	          FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, apperror.NewStorage(fmt.Errorf("listing users: %w", err))
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email,
			&u.IsAdmin, &u.IsSuperadmin, &u.IsBanned, &u.CreatedAt,
		); err != nil {
			return nil, 0, apperror.NewStorage(fmt.Errorf("scanning user row: %w", err))
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewStorage(fmt.Errorf("iterating user rows: %w", err))
	}

	return users, total, nil
}
