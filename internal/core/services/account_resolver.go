package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/middleware"
	"github.com/tipbit/tipbit-backend/internal/utils"
)

const usernameSuffixAttempts = 10

// accountResolverService implements AccountResolverSvc. Every resolution runs
// inside one transaction so a crash mid-way never leaves a user without their
// provider link or credential.
type accountResolverService struct {
	txManager      portsrepo.TxManager
	userRepo       portsrepo.UserRepository
	authConnRepo   portsrepo.AuthConnectionRepository
	credentialRepo portsrepo.CredentialRepository
}

// NewAccountResolverService creates a new instance of accountResolverService.
func NewAccountResolverService(
	txManager portsrepo.TxManager,
	userRepo portsrepo.UserRepository,
	authConnRepo portsrepo.AuthConnectionRepository,
	credentialRepo portsrepo.CredentialRepository,
) portssvc.AccountResolverSvc {
	return &accountResolverService{
		txManager:      txManager,
		userRepo:       userRepo,
		authConnRepo:   authConnRepo,
		credentialRepo: credentialRepo,
	}
}

var _ portssvc.AccountResolverSvc = (*accountResolverService)(nil)

// ResolveOAuthLogin resolves in three steps, first match wins: existing
// provider link, existing user with the same identifier (linking a new
// provider), or a brand-new account.
func (s *accountResolverService) ResolveOAuthLogin(ctx context.Context, data domain.OAuthProviderData) (*domain.User, error) {
	var resolved *domain.User

	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		authConns := s.authConnRepo.WithTx(tx)
		users := s.userRepo.WithTx(tx)

		conn, err := authConns.FindByProviderUser(ctx, data.Provider, data.ProviderID)
		if err == nil {
			user, err := users.FindUserByID(ctx, conn.UserID)
			if err != nil {
				return fmt.Errorf("provider link points at missing user %s: %w", conn.UserID, err)
			}
			resolved, err = s.refreshAvatar(ctx, users, user, data.AvatarURL)
			return err
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		user, err := users.FindUserByIdentifier(ctx, data.Identifier)
		if err == nil {
			if err := s.linkProvider(ctx, authConns, user.ID, data); err != nil {
				return err
			}
			resolved, err = s.refreshAvatar(ctx, users, user, data.AvatarURL)
			return err
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		user, err = s.createOAuthUser(ctx, users, data)
		if err != nil {
			return err
		}
		if err := s.linkProvider(ctx, authConns, user.ID, data); err != nil {
			return err
		}
		resolved = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *accountResolverService) linkProvider(ctx context.Context, authConns portsrepo.AuthConnectionRepository, userID string, data domain.OAuthProviderData) error {
	conn := domain.AuthConnection{
		ID:             uuid.NewString(),
		UserID:         userID,
		Provider:       data.Provider,
		ProviderUserID: data.ProviderID,
		CreatedAt:      time.Now(),
	}
	if err := authConns.SaveAuthConnection(ctx, conn); err != nil {
		return fmt.Errorf("failed to link %s account: %w", data.Provider, err)
	}
	return nil
}

// refreshAvatar is last-provider-wins: the newest login's avatar replaces the
// stored one when they differ.
func (s *accountResolverService) refreshAvatar(ctx context.Context, users portsrepo.UserRepository, user *domain.User, avatarURL *string) (*domain.User, error) {
	if avatarURL == nil || *avatarURL == "" {
		return user, nil
	}
	if user.AvatarURL != nil && *user.AvatarURL == *avatarURL {
		return user, nil
	}
	if err := users.UpdateAvatarURL(ctx, user.ID, *avatarURL); err != nil {
		return nil, fmt.Errorf("failed to refresh avatar: %w", err)
	}
	user.AvatarURL = avatarURL
	return user, nil
}

func (s *accountResolverService) createOAuthUser(ctx context.Context, users portsrepo.UserRepository, data domain.OAuthProviderData) (*domain.User, error) {
	preferred := data.Handle
	if preferred == "" {
		preferred = data.Identifier
	}
	username, err := s.pickUsername(ctx, users, preferred)
	if err != nil {
		return nil, err
	}

	displayName := data.DisplayName
	if displayName == "" {
		displayName = username
	}

	now := time.Now()
	user := domain.User{
		ID:             uuid.NewString(),
		Identifier:     data.Identifier,
		IdentifierType: data.IdentifierType,
		Username:       username,
		DisplayName:    displayName,
		AvatarURL:      data.AvatarURL,
		Role:           domain.RoleUser,
		IsPublic:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// pickUsername tries the bare derived candidate, then a bounded number of
// random-suffixed candidates, then a timestamp-suffixed last resort.
func (s *accountResolverService) pickUsername(ctx context.Context, users portsrepo.UserRepository, preferred string) (string, error) {
	base := utils.DeriveUsernameBase(preferred)

	if free, err := s.usernameFree(ctx, users, base); err != nil {
		return "", err
	} else if free && utils.ValidateUsername(base) == nil {
		return base, nil
	}

	for i := 0; i < usernameSuffixAttempts; i++ {
		candidate, err := utils.SuffixedUsername(base)
		if err != nil {
			return "", err
		}
		if free, err := s.usernameFree(ctx, users, candidate); err != nil {
			return "", err
		} else if free {
			return candidate, nil
		}
	}

	return utils.TimestampUsername(base), nil
}

func (s *accountResolverService) usernameFree(ctx context.Context, users portsrepo.UserRepository, username string) (bool, error) {
	_, err := users.FindUserByUsername(ctx, username)
	if errors.Is(err, apperrors.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// ResolvePasskeyRegistration attaches the credential to the account whose
// identifier matches the requested username, creating the account first when
// none exists, all in one transaction. Two racing registrations of the same
// new username are decided by the storage unique index; the loser surfaces as
// ErrDuplicate.
func (s *accountResolverService) ResolvePasskeyRegistration(ctx context.Context, reg portssvc.PasskeyRegistration) (*domain.User, error) {
	if err := utils.ValidateUsername(reg.RequestedUsername); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	displayName := reg.RequestedUsername
	if reg.DisplayName != nil && *reg.DisplayName != "" {
		displayName = *reg.DisplayName
	}

	var resolved *domain.User

	now := time.Now()
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		users := s.userRepo.WithTx(tx)

		existing, err := users.FindUserByIdentifier(ctx, reg.RequestedUsername)
		switch {
		case err == nil:
			// adding a second credential to an existing passkey account
			resolved = existing
		case errors.Is(err, apperrors.ErrNotFound):
			user := domain.User{
				ID:             uuid.NewString(),
				Identifier:     reg.RequestedUsername,
				IdentifierType: domain.IdentifierPasskey,
				Username:       reg.RequestedUsername,
				DisplayName:    displayName,
				Role:           domain.RoleUser,
				IsPublic:       false,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := users.SaveUser(ctx, user); err != nil {
				return err
			}
			resolved = &user
		default:
			return err
		}

		cred := domain.Credential{
			ID:         reg.CredentialID,
			UserID:     resolved.ID,
			PublicKey:  reg.PublicKey,
			Counter:    reg.Counter,
			BackedUp:   reg.BackedUp,
			Transports: reg.Transports,
			CreatedAt:  now,
		}
		return s.credentialRepo.WithTx(tx).SaveCredential(ctx, cred)
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ResolvePasskeyAuthentication returns the credential's owner and persists the
// new signature counter. A non-increasing counter suggests a cloned
// authenticator; it is logged for investigation but does not block login.
func (s *accountResolverService) ResolvePasskeyAuthentication(ctx context.Context, credentialID string, newCounter uint32) (*domain.User, error) {
	cred, err := s.credentialRepo.FindCredentialByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}

	if newCounter <= cred.Counter && cred.Counter != 0 {
		middleware.GetLoggerFromCtx(ctx).Warn("passkey signature counter did not increase",
			slog.String("credential_id", credentialID),
			slog.Uint64("stored", uint64(cred.Counter)),
			slog.Uint64("received", uint64(newCounter)),
		)
	}

	if err := s.credentialRepo.UpdateCounter(ctx, credentialID, newCounter); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindUserByID(ctx, cred.UserID)
	if err != nil {
		return nil, fmt.Errorf("credential points at missing user %s: %w", cred.UserID, err)
	}
	return user, nil
}

func (s *accountResolverService) CredentialsForUsername(ctx context.Context, identifier string) ([]domain.Credential, error) {
	user, err := s.userRepo.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.credentialRepo.FindCredentialsByUserID(ctx, user.ID)
}

func (s *accountResolverService) CredentialByID(ctx context.Context, credentialID string) (*domain.Credential, error) {
	return s.credentialRepo.FindCredentialByID(ctx, credentialID)
}
