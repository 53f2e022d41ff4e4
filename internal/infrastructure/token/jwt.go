// Package token issues and verifies HS256-signed session tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/usermgmt/user-management-api/internal/core/domain"
	"github.com/usermgmt/user-management-api/internal/core/ports"
)

// Claims extends the registered JWT claims with the subject's email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWTManager signs and verifies session tokens with a shared symmetric key.
// Issuer, audience and expiry are checked on every Verify; there is no
// leeway window, a token one second past exp is invalid.
type JWTManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration

	// now is swapped out in tests to pin the clock.
	now func() time.Time
}

// NewJWTManager builds a manager. An empty signing key is a configuration
// error and is rejected here so the process fails at startup, not per
// request.
func NewJWTManager(secret, issuer, audience string, ttl time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("token: signing key must not be empty")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &JWTManager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Issue creates a signed token for user carrying sub, email, jti, iss, aud
// and exp = now + ttl. Every issuance gets a fresh jti.
func (m *JWTManager) Issue(user *domain.User) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email: user.Email,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses and validates a token string. Every failure mode (bad
// signature, wrong issuer or audience, expiry, malformed input) collapses
// to domain.ErrInvalidToken.
func (m *JWTManager) Verify(token string) (*ports.TokenClaims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	return &ports.TokenClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
