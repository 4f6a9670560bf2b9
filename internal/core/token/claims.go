package token

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

// Claims is the JWT payload for both token kinds. The "type" claim carries
// the kind discriminator; jti identifies the token for revocation lookups.
type Claims struct {
	Kind string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into the numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidToken
	}
	return id, nil
}
