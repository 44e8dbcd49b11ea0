package services

import (
	"context"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
	"github.com/tipbit/tipbit-backend/internal/dto"
)

// ConnectionReaderSvc defines read operations for payment connections. Every
// outward-facing read returns sanitized responses; stored credentials never
// leave the service layer except through EncryptedCredential, whose output is
// still ciphertext.
type ConnectionReaderSvc interface {
	// ListConnections lists the caller's enabled connections, oldest first.
	ListConnections(ctx context.Context, userID string) ([]dto.ConnectionResponse, error)

	// GetConnection fetches one connection owned by the caller. A connection
	// owned by someone else yields ErrNotFound, not ErrUnauthorized.
	GetConnection(ctx context.Context, userID string, connectionID string) (*dto.ConnectionResponse, error)

	// GetLatestStrikeConnection returns the caller's most recent enabled Strike
	// connection, or ErrNotFound.
	GetLatestStrikeConnection(ctx context.Context, userID string) (*dto.ConnectionResponse, error)

	// ResolveActiveConnection picks the connection payments should flow
	// through: the enabled connection with the lowest priority rank, falling
	// back to the oldest enabled one when no ranking covers any. Tip-page
	// payment dispatch is the intended caller; no HTTP route uses it directly
	// yet.
	ResolveActiveConnection(ctx context.Context, ownerID string) (*domain.ConnectionWithDetail, error)

	// ListPriorities returns the owner's explicit priority ranking.
	ListPriorities(ctx context.Context, ownerID string) ([]dto.PriorityResponse, error)

	// EncryptedCredential returns the storage-encrypted credential held by a
	// connection, for handing to a provider gateway. A connection without its
	// own credential yields ErrCredentialUnavailable; there is no fallback to
	// the deployment-wide key here.
	EncryptedCredential(ctx context.Context, connectionID string) (string, domain.PaymentServiceType, error)
}

// ConnectionWriterSvc defines write operations for payment connections.
type ConnectionWriterSvc interface {
	// CreateConnection creates a connection with its service-specific detail.
	// Credential fields in the request are transit ciphertext and are
	// re-encrypted for storage before persisting.
	CreateConnection(ctx context.Context, userID string, req dto.CreateConnectionRequest) (*dto.ConnectionResponse, error)

	// UpdateConnection patches a connection's shared fields and, when present,
	// its service-specific credentials.
	UpdateConnection(ctx context.Context, userID string, connectionID string, req dto.UpdateConnectionRequest) (*dto.ConnectionResponse, error)

	// DeleteConnection removes a connection and its detail row.
	DeleteConnection(ctx context.Context, userID string, connectionID string) error

	// ReorderConnections replaces the caller's priority ranking with the given
	// order. Ids not owned by the caller fail the whole request; connections
	// omitted from the list drop out of the ranking.
	ReorderConnections(ctx context.Context, userID string, connectionIDs []string) ([]dto.PriorityResponse, error)

	// ConnectStrike verifies a Strike handle against the provider and creates
	// or updates the caller's Strike connection for it.
	ConnectStrike(ctx context.Context, userID string, req dto.StrikeConnectRequest) (*dto.ConnectionResponse, error)
}

// ConnectionSvcFacade combines all connection-related service interfaces.
type ConnectionSvcFacade interface {
	ConnectionReaderSvc
	ConnectionWriterSvc
}
