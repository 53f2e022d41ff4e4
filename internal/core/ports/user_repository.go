package ports

import (
	"context"

	"github.com/usermgmt/user-management-api/internal/core/domain"
)

// UserRepository is the persistence contract for user records.
//
// Create is atomic: the record is staged and committed within a single call,
// and the backing store enforces email uniqueness at insertion time. Two
// concurrent Create calls for the same email never both succeed; the loser
// observes domain.ErrUserExists.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no record matches.
	// Matching is case-insensitive; callers normalize before querying.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create persists a fully-populated user. A duplicate email yields
	// domain.ErrUserExists, never a silent overwrite.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// ListAll returns every user in insertion order.
	ListAll(ctx context.Context) ([]domain.User, error)
}
