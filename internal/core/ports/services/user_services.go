package services

import (
	"context"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
	"github.com/tipbit/tipbit-backend/internal/dto"
)

// UserReaderSvc defines read operations for user data.
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// GetPublicProfile retrieves the public view of a profile. Private profiles
	// are visible only to their owner; everyone else gets ErrNotFound.
	GetPublicProfile(ctx context.Context, username string, requesterID string) (*dto.PublicProfileResponse, error)

	// ListAuthAccounts lists the authentication methods linked to a user.
	ListAuthAccounts(ctx context.Context, userID string) ([]dto.AuthAccountResponse, error)
}

// UserWriterSvc defines write operations for user data.
type UserWriterSvc interface {
	// UpdateUsername changes the caller's public handle after validating format,
	// reserved-route exclusion, and uniqueness.
	UpdateUsername(ctx context.Context, userID string, username string) (*domain.User, error)

	// UpdateSettings patches display name and profile visibility.
	UpdateSettings(ctx context.Context, userID string, req dto.UpdateSettingsRequest) (*domain.User, error)
}

// UserSvcFacade combines all user-related service interfaces.
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
}
