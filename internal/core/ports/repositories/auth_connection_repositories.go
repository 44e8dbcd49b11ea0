package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// AuthConnectionRepository persists provider-to-user identity links.
type AuthConnectionRepository interface {
	// SaveAuthConnection persists a new provider link. The storage layer
	// enforces the (provider, providerUserID) uniqueness constraint.
	SaveAuthConnection(ctx context.Context, conn domain.AuthConnection) error

	// FindByProviderUser retrieves the link for a (provider, provider user id) pair.
	FindByProviderUser(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.AuthConnection, error)

	// FindByUserID lists every provider link for a user.
	FindByUserID(ctx context.Context, userID string) ([]domain.AuthConnection, error)

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx pgx.Tx) AuthConnectionRepository
}
