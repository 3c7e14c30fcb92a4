package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// DefaultTokenTTL is the session lifetime.
const DefaultTokenTTL = 24 * time.Hour

// ErrTokenExpired is joined with shared.ErrInvalidToken for expired tokens.
// It is informational only.
var ErrTokenExpired = errors.New("auth: token expired")

type tokenClaims struct {
	UserID  string `json:"id"`
	IsAdmin bool   `json:"is_Admin"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer. An empty secret is rejected.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: token secret must be provided")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenIssuer{secret: key, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// TTL returns the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue mints a token for the given identity.
func (t *TokenIssuer) Issue(userID string, isAdmin bool) (Token, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)
	claims := tokenClaims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Token{Value: signed, Claims: claims.toDomain()}, nil
}

// Verify checks signature, algorithm and expiry. Every failure wraps
// shared.ErrInvalidToken.
func (t *TokenIssuer) Verify(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, shared.ErrInvalidToken
	}
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %w", shared.ErrInvalidToken, ErrTokenExpired)
		}
		return Claims{}, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return Claims{}, shared.ErrInvalidToken
	}
	return claims.toDomain(), nil
}

func (c tokenClaims) toDomain() Claims {
	out := Claims{UserID: c.UserID, IsAdmin: c.IsAdmin, TokenID: c.ID}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
