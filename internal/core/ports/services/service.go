package services

import (
	"github.com/tipbit/tipbit-backend/internal/gateways/strike"
)

// ServiceContainer holds all service implementations for dependency injection.
type ServiceContainer struct {
	Encryption EncryptionSvc
	Resolver   AccountResolverSvc
	User       UserSvcFacade
	Connection ConnectionSvcFacade
	Token      TokenSvcFacade
	OAuth      OAuthSvcFacade
	WebAuthn   WebAuthnSvcFacade
	Strike     *strike.Service
}
