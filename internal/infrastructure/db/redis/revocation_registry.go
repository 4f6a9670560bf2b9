package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

const (
	tokenKeyPrefix = "auth:revoked:"
	userKeyPrefix  = "auth:revoked_user:"
)

// RevocationRegistry stores revoked refresh-token ids and per-user
// revoke-all watermarks in Redis. Entries carry the remaining token lifetime
// as their TTL, so natural expiry prunes the set without a sweeper.
//
// SET NX gives the atomic check-not-revoked-then-revoke step that rotation
// relies on: exactly one of several concurrent refreshes can claim a token.
type RevocationRegistry struct {
	client *redis.Client
}

func NewRevocationRegistry(client *redis.Client) *RevocationRegistry {
	return &RevocationRegistry{client: client}
}

func (r *RevocationRegistry) Revoke(ctx context.Context, tokenID string, reason domain.RevocationReason, ttl time.Duration) error {
	if err := r.client.SetNX(ctx, tokenKey(tokenID), string(reason), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RevocationRegistry) RevokeOnce(ctx context.Context, tokenID string, reason domain.RevocationReason, ttl time.Duration) (bool, error) {
	won, err := r.client.SetNX(ctx, tokenKey(tokenID), string(reason), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim token revocation: %w", err)
	}
	return won, nil
}

func (r *RevocationRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, tokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *RevocationRegistry) RevokeUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error {
	value := strconv.FormatInt(at.Unix(), 10)
	if err := r.client.Set(ctx, userKey(userID), value, ttl).Err(); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

func (r *RevocationRegistry) UserRevokedAt(ctx context.Context, userID int64) (time.Time, bool, error) {
	value, err := r.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("user revocation check: %w", err)
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("user revocation entry corrupt: %w", err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

// SweepExpired is a no-op for the Redis backend: every entry is written with
// a TTL and Redis expires it server-side.
func (r *RevocationRegistry) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func tokenKey(tokenID string) string { return tokenKeyPrefix + tokenID }

func userKey(userID int64) string { return userKeyPrefix + strconv.FormatInt(userID, 10) }
