package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/taskhub/task-tracker/internal/core/domain"
	"github.com/taskhub/task-tracker/internal/core/password"
	"github.com/taskhub/task-tracker/internal/core/ports"
	"github.com/taskhub/task-tracker/internal/core/token"
)

// revocationGrace pads revocation-entry TTLs past the token's own expiry so
// clock skew between nodes cannot resurrect a revoked token.
const revocationGrace = time.Minute

// AuthService orchestrates login, refresh rotation, logout and password
// changes. Session state is implicit in which tokens are live vs revoked;
// the service itself holds no per-user locks.
type AuthService struct {
	users     ports.UserRepository
	registry  ports.RevocationRegistry
	issuer    *token.Issuer
	validator *token.Validator
	passwords *password.Pool
	log       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	registry ports.RevocationRegistry,
	issuer *token.Issuer,
	validator *token.Validator,
	passwords *password.Pool,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		registry:  registry,
		issuer:    issuer,
		validator: validator,
		passwords: passwords,
		log:       log,
	}
}

// Login verifies credentials and mints a fresh token pair. Every failure
// mode collapses into domain.ErrInvalidCredentials so the response cannot
// be used to probe which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, pw string) (*ports.LoginResult, error) {
	if username == "" || pw == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive || user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := s.passwords.Verify(ctx, pw, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{Tokens: *pair, User: user.Profile()}, nil
}

// Refresh rotates refreshToken: the presented token is revoked and a new
// pair is issued. RevokeOnce makes the rotation claim atomic, so when two
// requests race on the same token exactly one wins; the loser gets
// domain.ErrSessionExpired, never a second valid pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	identity, err := s.validator.Validate(ctx, refreshToken, domain.TokenKindRefresh)
	if err != nil {
		return nil, asSessionExpired(err)
	}

	won, err := s.registry.RevokeOnce(ctx, identity.TokenID, domain.ReasonRotated, revocationTTL(identity))
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !won {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrSessionExpired
	}

	return s.issuePair(user.ID)
}

// Logout revokes the session behind refreshToken. It never fails visibly:
// malformed, expired and already-revoked tokens all count as logged out, and
// registry trouble is logged rather than surfaced.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	identity, err := s.validator.Validate(ctx, refreshToken, domain.TokenKindRefresh)
	if err != nil {
		// Nothing live left to revoke.
		return
	}

	if err := s.registry.Revoke(ctx, identity.TokenID, domain.ReasonLogout, revocationTTL(identity)); err != nil {
		s.log.Warn().Err(err).Int64("user_id", identity.UserID).Msg("logout revocation failed")
	}
}

// ChangePassword re-verifies the current password, stores a new digest and
// drops every outstanding refresh token for the user, forcing other devices
// to re-login.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.passwords.Verify(ctx, current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	if utf8.RuneCountInString(next) < password.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	if len(next) > password.MaxPasswordBytes {
		return domain.ErrPasswordTooLong
	}

	digest, err := s.passwords.Hash(ctx, next)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, digest); err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}

	// The credential change is already committed; a failed session sweep
	// must not report the whole operation as failed. The watermark is
	// truncated to whole seconds to match iat granularity; tokens minted in
	// the same second (a re-login right after the change) stay valid.
	mark := time.Now().UTC().Truncate(time.Second)
	if err := s.registry.RevokeUser(ctx, userID, mark, s.issuer.RefreshTTL()+revocationGrace); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to revoke sessions after password change")
	}

	return nil
}

// Authenticate is the per-request gate: it validates an access token and
// resolves it to a live, active account.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	identity, err := s.validator.Validate(ctx, accessToken, domain.TokenKindAccess)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrTokenRevoked) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

func (s *AuthService) issuePair(userID int64) (*domain.TokenPair, error) {
	access, err := s.issuer.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, _, err := s.issuer.IssueRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// revocationTTL sizes a registry entry to outlive its token by a small grace
// period; past that point the token is dead on expiry alone.
func revocationTTL(identity *domain.Identity) time.Duration {
	remaining := time.Until(identity.ExpiresAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining + revocationGrace
}

func asSessionExpired(err error) error {
	if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrTokenRevoked) {
		return domain.ErrSessionExpired
	}
	return err
}
