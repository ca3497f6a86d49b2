package utils

import "golang.org/x/crypto/bcrypt"

// ErrPasswordTooLong is returned by Hash for passwords bcrypt cannot take
// (more than 72 bytes).
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// BcryptHasher hashes passwords with bcrypt at a fixed cost.  The digest
// embeds its own salt and cost, so Verify works across cost changes.
type BcryptHasher struct{ Cost int }

// NewBcryptHasher returns a hasher for cost, falling back to
// bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches digest.  A malformed digest is a
// mismatch, not an error.
func (h BcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
