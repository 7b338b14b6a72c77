// Package database provides connection setup for MariaDB and Redis. Both
// connections are created once at startup and handed down by injection;
// this package owns open, pool configuration, readiness, and close.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registers the mysql driver with database/sql.
	_ "github.com/go-sql-driver/mysql"

	"github.com/parla-social/parla/internal/config"
)

// pingAttempts bounds how long startup waits for the database. With the
// doubling backoff below (capped at 30s) ten attempts cover a few minutes
// of container cold-start.
const pingAttempts = 10

// NewMariaDB opens the MariaDB pool described by the config and waits for
// the server to answer a ping before returning. The pool limits guard
// against connection exhaustion under load; the wait covers compose
// deployments where the database container starts alongside this one.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitForPing(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// waitForPing pings the database with exponential backoff until it answers
// or the attempt budget runs out.
func waitForPing(db *sql.DB) error {
	backoff := time.Second
	var pingErr error

	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = db.PingContext(ctx)
		cancel()

		if pingErr == nil {
			return nil
		}
		if attempt == pingAttempts {
			break
		}

		slog.Warn("mariadb not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.Any("error", pingErr),
		)
		time.Sleep(backoff)
		backoff = min(backoff*2, 30*time.Second)
	}

	return fmt.Errorf("pinging mariadb after %d attempts: %w", pingAttempts, pingErr)
}
