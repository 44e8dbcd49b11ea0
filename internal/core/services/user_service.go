package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/utils"
)

// userService implements UserSvcFacade.
type userService struct {
	userRepo     portsrepo.UserRepository
	authConnRepo portsrepo.AuthConnectionRepository
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo portsrepo.UserRepository, authConnRepo portsrepo.AuthConnectionRepository) portssvc.UserSvcFacade {
	return &userService{
		userRepo:     userRepo,
		authConnRepo: authConnRepo,
	}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetPublicProfile hides private profiles from everyone but their owner, and
// hides their existence: the error is ErrNotFound either way.
func (s *userService) GetPublicProfile(ctx context.Context, username string, requesterID string) (*dto.PublicProfileResponse, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.IsPublic && user.ID != requesterID {
		return nil, apperrors.ErrNotFound
	}
	return &dto.PublicProfileResponse{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}

func (s *userService) ListAuthAccounts(ctx context.Context, userID string) ([]dto.AuthAccountResponse, error) {
	conns, err := s.authConnRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth accounts: %w", err)
	}
	accounts := make([]dto.AuthAccountResponse, len(conns))
	for i, conn := range conns {
		accounts[i] = dto.AuthAccountResponse{
			Provider:       conn.Provider,
			ProviderUserID: conn.ProviderUserID,
		}
	}
	return accounts, nil
}

func (s *userService) UpdateUsername(ctx context.Context, userID string, username string) (*domain.User, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	err := s.userRepo.UpdateUsername(ctx, userID, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflictError("username already taken")
		}
		return nil, err
	}
	return s.userRepo.FindUserByID(ctx, userID)
}

func (s *userService) UpdateSettings(ctx context.Context, userID string, req dto.UpdateSettingsRequest) (*domain.User, error) {
	if req.DisplayName != nil && *req.DisplayName == "" {
		return nil, apperrors.NewBadRequestError("display name cannot be empty")
	}
	if err := s.userRepo.UpdateSettings(ctx, userID, req.DisplayName, req.IsPublic); err != nil {
		return nil, err
	}
	return s.userRepo.FindUserByID(ctx, userID)
}
