package ports

import (
	"context"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

// LoginResult carries the freshly minted token pair plus a profile summary.
type LoginResult struct {
	Tokens domain.TokenPair
	User   domain.Profile
}

// AuthService is the gateway route handlers depend on: every protected
// endpoint funnels through Authenticate before touching business logic.
type AuthService interface {
	// Login verifies credentials and issues an access+refresh pair.
	// Unknown user, wrong password and inactive account all fail with the
	// same domain.ErrInvalidCredentials.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// Refresh rotates a refresh token: the presented token is revoked and a
	// brand-new pair is issued. Each refresh token is usable exactly once;
	// any rejection surfaces as domain.ErrSessionExpired.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)

	// Logout revokes the refresh token's session. It never fails visibly:
	// expired, malformed or already-revoked tokens are all fine.
	Logout(ctx context.Context, refreshToken string)

	// ChangePassword re-verifies the current password, stores a new digest
	// and revokes every outstanding refresh token for the user.
	ChangePassword(ctx context.Context, userID int64, current, next string) error

	// Authenticate validates an access token and resolves it to a live,
	// active user. This is the per-request gate.
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}
