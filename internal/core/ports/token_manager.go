package ports

import (
	"time"

	"github.com/usermgmt/user-management-api/internal/core/domain"
)

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager issues and verifies signed, time-bounded session tokens.
// Tokens are stateless: validity is decided entirely by signature and claim
// checks, with no server-side record.
type TokenManager interface {
	Issue(user *domain.User) (string, error)

	// Verify returns domain.ErrInvalidToken on every failure; the caller
	// cannot tell an expired token from a tampered one.
	Verify(token string) (*TokenClaims, error)
}
