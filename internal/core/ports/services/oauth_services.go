package services

import (
	"context"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// OAuthProviderSvc is one configured OAuth identity provider.
type OAuthProviderSvc interface {
	// Provider names the provider this service talks to.
	Provider() domain.AuthProvider

	// AuthCodeURL builds the provider's consent-page URL for a CSRF state.
	// verifier is the PKCE code verifier; providers that do not use PKCE
	// ignore it.
	AuthCodeURL(state string, verifier string) string

	// ResolveUser exchanges an authorization code and fetches the provider's
	// view of the user, normalized for account resolution. verifier must match
	// the one used to build the consent URL.
	ResolveUser(ctx context.Context, code string, verifier string) (domain.OAuthProviderData, error)
}

// OAuthSvcFacade looks up configured providers by name.
type OAuthSvcFacade interface {
	// Provider returns the named provider service, or false when the provider
	// is unknown or not configured.
	Provider(name string) (OAuthProviderSvc, bool)
}
