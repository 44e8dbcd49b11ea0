package services

import (
	"context"
	"net/http"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
	"github.com/tipbit/tipbit-backend/internal/dto"
)

// WebAuthnSvcFacade runs passkey ceremonies. Begin calls stash the ceremony
// session server-side and hand back an opaque ceremony id; finish calls consume
// it. Sessions expire after a short TTL and are single-use.
type WebAuthnSvcFacade interface {
	// BeginRegistration validates the requested username and opens a
	// registration ceremony.
	BeginRegistration(ctx context.Context, req dto.PasskeyRegisterBeginRequest) (*dto.CeremonyBeginResponse, error)

	// FinishRegistration verifies the attestation response and creates the
	// account.
	FinishRegistration(ctx context.Context, ceremonyID string, r *http.Request) (*domain.User, error)

	// BeginAuthentication opens a login ceremony. An empty username starts a
	// discoverable-credential ceremony.
	BeginAuthentication(ctx context.Context, req dto.PasskeyAuthenticateBeginRequest) (*dto.CeremonyBeginResponse, error)

	// FinishAuthentication verifies the assertion and returns the credential's
	// owner.
	FinishAuthentication(ctx context.Context, ceremonyID string, r *http.Request) (*domain.User, error)
}
