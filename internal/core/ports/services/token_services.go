package services

import (
	"context"
	"time"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
)

// TokenSvcFacade mints and verifies the application's session tokens.
type TokenSvcFacade interface {
	// GenerateAccessToken creates a signed JWT for the user.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// VerifyAccessToken validates a token and returns the user id and role it
	// carries. Invalid or expired tokens yield ErrUnauthorized.
	VerifyAccessToken(ctx context.Context, token string) (userID string, role domain.Role, err error)
}
