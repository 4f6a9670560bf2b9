package domain

import (
	"errors"
	"time"
)

// TokenKind discriminates the two JWT flavours the service issues. A token
// of one kind is never accepted where the other is required.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// RevocationReason records why a refresh token was invalidated before its
// natural expiry.
type RevocationReason string

const (
	ReasonLogout         RevocationReason = "logout"
	ReasonRotated        RevocationReason = "rotated"
	ReasonPasswordChange RevocationReason = "password_change"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Identity is the outcome of validating a token: who presented it and which
// concrete token it was.
type Identity struct {
	UserID    int64
	TokenID   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var (
	// ErrInvalidCredentials covers every login-path failure (unknown user,
	// wrong password, inactive account) and invalid access tokens. The
	// message is deliberately uniform so callers cannot enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionExpired means a refresh token was rejected (bad signature,
	// expired, revoked, or lost a rotation race); the client must re-login.
	ErrSessionExpired = errors.New("session expired")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password exceeds 72 bytes")

	// ErrMalformedHash signals a corrupt stored digest — a data-integrity
	// failure, never a user error.
	ErrMalformedHash = errors.New("malformed password hash")
)
