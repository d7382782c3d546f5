package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// DefaultTokenTTL is how long a minted token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// minSecretLength is the minimum HS256 key size accepted.
const minSecretLength = 32

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and expired tokens alike.
	// The wrapped cause is only meant for logs.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEncoding indicates a token could not be signed. It is a server fault.
	ErrEncoding = errors.New("token encoding failed")
	// ErrWeakSecret indicates the signing secret is missing or too short.
	ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")
)

// Claims is the payload carried by a bearer token.
type Claims struct {
	jwt.RegisteredClaims
}

// Expiry returns the absolute expiry time, or the zero time if unset.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenCodec signs and verifies HS256 bearer tokens with a shared secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &TokenCodec{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime applied by Encode.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Encode mints a token for subject using the codec's TTL.
func (c *TokenCodec) Encode(subject string) (string, error) {
	return c.EncodeWithTTL(subject, c.ttl)
}

// EncodeWithTTL mints a token for subject that expires ttl from now.
func (c *TokenCodec) EncodeWithTTL(subject string, ttl time.Duration) (string, error) {
	now := c.now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return signed, nil
}

// Decode verifies the signature and expiry of token and returns its claims.
// Every failure wraps ErrInvalidToken.
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
