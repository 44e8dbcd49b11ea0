package services

import (
	"fmt"

	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/gateways/strike"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) (*portssvc.ServiceContainer, error) {
	container := &portssvc.ServiceContainer{}

	// Encryption first; credential handling everywhere depends on it.
	encryption, err := NewEncryptionService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption service: %w", err)
	}
	container.Encryption = encryption

	container.Strike = strike.NewService(cfg, encryption)

	container.Resolver = NewAccountResolverService(
		repos.TxManager,
		repos.UserRepo,
		repos.AuthConnRepo,
		repos.CredentialRepo,
	)

	container.User = NewUserService(repos.UserRepo, repos.AuthConnRepo)
	container.Connection = NewConnectionService(repos.TxManager, repos.ConnectionRepo, encryption, container.Strike)
	container.Token = NewTokenService(cfg, repos.UserRepo)
	container.OAuth = NewOAuthService(cfg)

	webauthnSvc, err := NewWebAuthnService(cfg, container.Resolver)
	if err != nil {
		return nil, err
	}
	container.WebAuthn = webauthnSvc

	return container, nil
}

// Compile-time interface checks.
var (
	_ portssvc.AccountResolverSvc  = (*accountResolverService)(nil)
	_ portssvc.ConnectionSvcFacade = (*connectionService)(nil)
	_ portssvc.UserSvcFacade       = (*userService)(nil)
)
