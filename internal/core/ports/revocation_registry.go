package ports

import (
	"context"
	"time"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

// RevocationRegistry tracks refresh tokens invalidated before their natural
// expiry. Tokens are otherwise stateless, so this is the only shared state
// behind logout and rotation.
//
// Entries carry a TTL equal to the remaining token lifetime: once the token
// would have expired anyway, the entry is worthless and may vanish.
type RevocationRegistry interface {
	// Revoke marks a token id as revoked. Idempotent: revoking an
	// already-revoked token is a no-op, not an error.
	Revoke(ctx context.Context, tokenID string, reason domain.RevocationReason, ttl time.Duration) error

	// RevokeOnce atomically claims the first revocation of tokenID. It
	// returns true for exactly one caller per token id; concurrent callers
	// racing on the same id get false. Rotation is built on this.
	RevokeOnce(ctx context.Context, tokenID string, reason domain.RevocationReason, ttl time.Duration) (bool, error)

	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// RevokeUser sets a per-user watermark: refresh tokens issued before at
	// are treated as revoked. Used to drop every outstanding session on
	// password change without enumerating token ids.
	RevokeUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error

	// UserRevokedAt returns the watermark for userID, if any.
	UserRevokedAt(ctx context.Context, userID int64) (time.Time, bool, error)

	// SweepExpired drops entries whose underlying token expired before the
	// given time and returns how many were removed. Cleanup only — stale
	// entries are harmless.
	SweepExpired(ctx context.Context, before time.Time) (int, error)
}
