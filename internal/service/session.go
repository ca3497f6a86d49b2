package service

import (
	"context"

	"github.com/iliyamo/food-journal-api/internal/utils"
)

// Messages for rejected sessions.  Both map to the unauthorized class.
const (
	MsgTokenRevoked       = "Access token is no longer usable. Please log in again."
	MsgInvalidCredentials = "Could not validate credentials"
)

// TokenVerifier is the verification half of utils.TokenCodec.
type TokenVerifier interface {
	Verify(raw string) (*utils.SessionClaims, error)
}

// SessionValidator is the gate every protected request passes through.
//
// The user id it returns is read from the token and is not looked up in
// the store: a token issued to an account that has since been deleted
// still authenticates here until it expires.  Services that need a live
// account check for it themselves.
type SessionValidator struct {
	registry *RevocationRegistry
	codec    TokenVerifier
}

func NewSessionValidator(registry *RevocationRegistry, codec TokenVerifier) *SessionValidator {
	return &SessionValidator{registry: registry, codec: codec}
}

// Authenticate returns the user id asserted by token.  The blacklist is
// consulted before the signature so a revoked token is reported as such
// even when it is also expired.
func (v *SessionValidator) Authenticate(ctx context.Context, token string) (uint64, error) {
	revoked, err := v.registry.IsRevoked(ctx, token)
	if err != nil {
		return 0, internal("Could not check access token", err)
	}
	if revoked {
		return 0, newError(KindUnauthorized, MsgTokenRevoked)
	}

	claims, err := v.codec.Verify(token)
	if err != nil {
		return 0, newError(KindUnauthorized, MsgInvalidCredentials)
	}
	if claims.Email == "" || claims.UserID == 0 {
		return 0, newError(KindUnauthorized, MsgInvalidCredentials)
	}
	return claims.UserID, nil
}
