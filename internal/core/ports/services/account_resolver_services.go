package services

import (
	"context"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// PasskeyRegistration is the normalized result of a successful WebAuthn
// registration ceremony plus the user-chosen account details.
type PasskeyRegistration struct {
	CredentialID      string
	PublicKey         []byte
	Counter           uint32
	BackedUp          bool
	Transports        []string
	RequestedUsername string
	DisplayName       *string
}

// AccountResolverSvc turns one external authentication event into exactly one
// user account, idempotently and race-safely. Each resolution runs inside a
// single store transaction; on failure nothing is partially committed.
type AccountResolverSvc interface {
	// ResolveOAuthLogin matches the event to an existing provider link, links
	// the provider to an existing identifier, or creates a new account with a
	// guaranteed-unique username.
	ResolveOAuthLogin(ctx context.Context, data domain.OAuthProviderData) (*domain.User, error)

	// ResolvePasskeyRegistration creates (or reuses, for a second credential)
	// the account for a validated passkey registration.
	ResolvePasskeyRegistration(ctx context.Context, reg PasskeyRegistration) (*domain.User, error)

	// ResolvePasskeyAuthentication looks up the credential's owner and stores
	// the new signature counter.
	ResolvePasskeyAuthentication(ctx context.Context, credentialID string, newCounter uint32) (*domain.User, error)

	// CredentialsForUsername lists the stored credentials for a login identifier,
	// for building a ceremony's allowed-credentials list.
	CredentialsForUsername(ctx context.Context, identifier string) ([]domain.Credential, error)

	// CredentialByID fetches one stored credential.
	CredentialByID(ctx context.Context, credentialID string) (*domain.Credential, error)
}
