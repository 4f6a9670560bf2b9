package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

// ErrNoSecret is returned when the signing secret is empty. Tokens signed
// with an empty secret would be trivially forgeable.
var ErrNoSecret = errors.New("token: signing secret is empty")

// Issuer mints signed, time-boxed tokens. The secret is process-wide
// configuration loaded once at startup and never mutated.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// RefreshTTL exposes the configured refresh lifetime so revocation entries
// can share it.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess signs a short-lived access token for userID.
func (i *Issuer) IssueAccess(userID int64) (string, error) {
	signed, _, err := i.sign(userID, domain.TokenKindAccess, i.accessTTL)
	return signed, err
}

// IssueRefresh signs a long-lived refresh token for userID and returns the
// token id used for revocation tracking.
func (i *Issuer) IssueRefresh(userID int64) (string, string, error) {
	return i.sign(userID, domain.TokenKindRefresh, i.refreshTTL)
}

func (i *Issuer) sign(userID int64, kind domain.TokenKind, ttl time.Duration) (string, string, error) {
	now := i.now().UTC()
	tokenID := uuid.NewString()
	claims := Claims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", "", err
	}
	return signed, tokenID, nil
}
