package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
	"github.com/tipbit/tipbit-backend/internal/utils"
)

// tokenService implements TokenSvcFacade for the application's session JWTs.
type tokenService struct {
	cfg      *config.Config
	userRepo portsrepo.UserRepository
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config, userRepo portsrepo.UserRepository) portssvc.TokenSvcFacade {
	return &tokenService{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken creates a new JWT access token for the given user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.JWTExpiryDuration)

	accessToken, err := utils.GenerateJWT(user.ID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, expiryTime, nil
}

// VerifyAccessToken validates the token signature and claims, then loads the
// subject's current role so revoked or deleted accounts fail closed.
func (s *tokenService) VerifyAccessToken(ctx context.Context, token string) (string, domain.Role, error) {
	claims, err := utils.ParseAndValidateJWT(token, s.cfg.JWTSecret)
	if err != nil {
		return "", "", fmt.Errorf("token validation failed: %w", err)
	}
	if claims.Subject == "" {
		return "", "", fmt.Errorf("token has no subject")
	}

	user, err := s.userRepo.FindUserByID(ctx, claims.Subject)
	if err != nil {
		return "", "", fmt.Errorf("token subject lookup failed: %w", err)
	}
	return user.ID, user.Role, nil
}
