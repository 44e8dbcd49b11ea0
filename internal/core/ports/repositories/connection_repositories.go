package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// ConnectionReader defines read operations over payment connections.
type ConnectionReader interface {
	// FindConnectionByID retrieves a connection with its provider detail attached.
	FindConnectionByID(ctx context.Context, connectionID string) (*domain.ConnectionWithDetail, error)

	// FindConnectionsByUserID lists a user's connections with detail attached,
	// ordered by creation time ascending. enabledOnly restricts to enabled rows.
	FindConnectionsByUserID(ctx context.Context, userID string, enabledOnly bool) ([]domain.ConnectionWithDetail, error)

	// FindLatestByUserAndService retrieves the newest connection of a given
	// service type for a user, or ErrNotFound.
	FindLatestByUserAndService(ctx context.Context, userID string, serviceType domain.PaymentServiceType, enabledOnly bool) (*domain.ConnectionWithDetail, error)
}

// ConnectionWriter defines write operations over payment connections.
type ConnectionWriter interface {
	// SaveConnection persists a new generic connection row.
	SaveConnection(ctx context.Context, conn domain.PaymentConnection) error

	// SaveStrikeConnection persists the Strike detail row.
	SaveStrikeConnection(ctx context.Context, detail domain.StrikeConnection) error

	// SaveCoinosConnection persists the Coinos detail row.
	SaveCoinosConnection(ctx context.Context, detail domain.CoinosConnection) error

	// SaveAlbyConnection persists the Alby detail row.
	SaveAlbyConnection(ctx context.Context, detail domain.AlbyConnection) error

	// UpdateConnection patches the generic row. Nil fields are left untouched.
	UpdateConnection(ctx context.Context, connectionID string, name *string, isEnabled *bool) error

	// UpdateStrikeAPIKey replaces (or removes, when nil) the stored Strike credential ciphertext.
	UpdateStrikeAPIKey(ctx context.Context, connectionID string, apiKey *string) error

	// UpdateCoinosAPIKey replaces the stored Coinos credential ciphertext.
	UpdateCoinosAPIKey(ctx context.Context, connectionID string, apiKey string) error

	// UpdateAlbyTokens patches the stored Alby token ciphertexts. A nil
	// accessToken leaves it untouched; refreshToken uses OptionalSecret tri-state.
	UpdateAlbyTokens(ctx context.Context, connectionID string, accessToken *string, refreshToken domain.OptionalSecret) error

	// DeleteConnection removes a connection; detail and priority rows cascade.
	DeleteConnection(ctx context.Context, connectionID string) error
}

// PriorityRepository manages per-owner connection priority ordering.
type PriorityRepository interface {
	// FindPrioritiesByOwnerID lists priority rows ascending by priority.
	FindPrioritiesByOwnerID(ctx context.Context, ownerID string) ([]domain.ConnectionPriority, error)

	// ReplacePriorities deletes the owner's priority rows and inserts the new
	// order with sequential priorities starting at 1. Must run inside the
	// caller's transaction to be atomic.
	ReplacePriorities(ctx context.Context, ownerID string, connectionIDs []string) ([]domain.ConnectionPriority, error)
}

// ConnectionRepository combines all payment-connection repository operations.
type ConnectionRepository interface {
	ConnectionReader
	ConnectionWriter
	PriorityRepository

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx pgx.Tx) ConnectionRepository
}
