package utils // package utils provides helpers for token signing, hashing and validation

import (
	"errors" // errors defines the single invalid-token outcome
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens

	"github.com/iliyamo/food-journal-api/internal/config" // signing key and algorithm
)

// DefaultTokenTTL is the fixed lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is the only error Verify returns.  Malformed input, a bad
// signature, a foreign algorithm and an elapsed expiry all collapse into it
// so callers cannot tell which check failed.
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims is the payload of a session token: who the bearer is and
// when the token stops being honoured.
type SessionClaims struct {
	Email  string `json:"email,omitempty"`
	UserID uint64 `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed session token along with its expiry.
// The Token field contains the compact JWT string sent to the client in
// the Authorization header.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenCodec signs and verifies session tokens with a process-wide HMAC
// key.  It is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenCodec builds a codec from the loaded configuration.  Only the
// HMAC family is accepted; the key is copied so later changes to cfg have
// no effect.
func NewTokenCodec(cfg *config.Config) (*TokenCodec, error) {
	if cfg == nil || cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	m, ok := jwt.GetSigningMethod(cfg.JWTAlgorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.New("unsupported signing algorithm " + cfg.JWTAlgorithm)
	}
	return &TokenCodec{
		secret: []byte(cfg.JWTSecret),
		method: m,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock returns a copy of the codec that reads time from now.  It lets
// tests move past a token's expiry without sleeping.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue builds and signs a token asserting email and userID that expires
// ttl from now.  A non-positive ttl uses DefaultTokenTTL.
func (c *TokenCodec) Issue(email string, userID uint64, ttl time.Duration) (AccessToken, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := c.now()
	exp := now.Add(ttl)
	claims := SessionClaims{
		Email:  email,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks the structure, signature and expiry of raw and returns its
// claims.  Any failure yields ErrInvalidToken.
func (c *TokenCodec) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
