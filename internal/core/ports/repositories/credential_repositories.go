package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// CredentialRepository persists WebAuthn passkey credentials.
type CredentialRepository interface {
	// SaveCredential persists a new credential.
	SaveCredential(ctx context.Context, cred domain.Credential) error

	// FindCredentialByID retrieves a credential by its authenticator-assigned id.
	FindCredentialByID(ctx context.Context, credentialID string) (*domain.Credential, error)

	// FindCredentialsByUserID lists a user's credentials.
	FindCredentialsByUserID(ctx context.Context, userID string) ([]domain.Credential, error)

	// UpdateCounter stores the new signature counter after a successful assertion.
	UpdateCounter(ctx context.Context, credentialID string, counter uint32) error

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx pgx.Tx) CredentialRepository
}
