package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parla-social/parla/internal/apperror"
)

// resetKeyPrefix namespaces password reset tokens in Redis.
const resetKeyPrefix = "pwreset:"

// HashResetToken returns the hex SHA-256 of a reset token. Only the hash is
// ever stored, so a leaked token store cannot be replayed directly.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ResetTokenStore holds outstanding password reset tokens. Unlike sessions,
// reset tokens are short-lived and self-expiring, so they live in Redis
// with a TTL instead of the relational store.
//
// Consume returns (0, nil) for an unknown or expired token hash.
type ResetTokenStore interface {
	Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error
	Consume(ctx context.Context, tokenHash string) (int64, error)
}

// redisResetTokenStore implements ResetTokenStore on a Redis client.
type redisResetTokenStore struct {
	client *redis.Client
}

// NewResetTokenStore creates a reset token store backed by Redis.
func NewResetTokenStore(client *redis.Client) ResetTokenStore {
	return &redisResetTokenStore{client: client}
}

// Save stores the token hash with the owning user ID and a TTL. Redis
// expires the key on its own; no sweeper needed.
func (r *redisResetTokenStore) Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error {
	key := resetKeyPrefix + tokenHash
	if err := r.client.Set(ctx, key, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return apperror.NewStorage(fmt.Errorf("storing reset token: %w", err))
	}
	return nil
}

// Consume atomically reads and deletes the token hash, making every token
// single-use even under concurrent redemption attempts.
func (r *redisResetTokenStore) Consume(ctx context.Context, tokenHash string) (int64, error) {
	key := resetKeyPrefix + tokenHash

	val, err := r.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, apperror.NewStorage(fmt.Errorf("consuming reset token: %w", err))
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("corrupt reset token value %q: %w", val, err))
	}
	return userID, nil
}

// ResetNotifier delivers a password reset token to the account owner,
// typically by email. Delivery is pluggable so environments without an
// outbound mailer still work.
type ResetNotifier interface {
	Notify(ctx context.Context, email, token string) error
}

// LogNotifier writes the reset link to the server log. It is the
// development default; production deployments wire a real mailer.
type LogNotifier struct {
	// BaseURL is the public URL the reset link is built against.
	BaseURL string
}

// Notify logs the reset link instead of sending it.
func (n *LogNotifier) Notify(ctx context.Context, email, token string) error {
	slog.Info("password reset requested",
		slog.String("email", email),
		slog.String("link", fmt.Sprintf("%s/reset?token=%s", n.BaseURL, token)),
	)
	return nil
}
