package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// UserReader defines read operations for user data.
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByIdentifier retrieves a user by their unique login identifier.
	FindUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// FindUserByUsername retrieves a user by their public handle.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// UserWriter defines write operations for user data.
type UserWriter interface {
	// SaveUser persists a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// UpdateAvatarURL updates a user's avatar (last-provider-wins).
	UpdateAvatarURL(ctx context.Context, userID string, avatarURL string) error

	// UpdateUsername changes a user's public handle.
	UpdateUsername(ctx context.Context, userID string, username string) error

	// UpdateSettings updates a user's display name and profile visibility.
	UpdateSettings(ctx context.Context, userID string, displayName *string, isPublic *bool) error
}

// UserRepository combines all user-related repository operations.
type UserRepository interface {
	UserReader
	UserWriter

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx pgx.Tx) UserRepository
}
