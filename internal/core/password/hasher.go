package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

// MaxPasswordBytes is bcrypt's hard input limit; longer passwords would be
// silently truncated, so they are rejected instead.
const MaxPasswordBytes = 72

// MinPasswordLength applies to new passwords only; existing credentials are
// verified as-is.
const MinPasswordLength = 8

// Hasher wraps bcrypt behind the two operations the gateway needs. The salt
// is generated internally and embedded in the digest, so verification needs
// nothing beyond the digest itself.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash produces a salted digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", domain.ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A mismatch is (false, nil);
// an error is returned only for a malformed digest, which means the stored
// record is corrupt.
func (h *Hasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, domain.ErrMalformedHash
	}
}
