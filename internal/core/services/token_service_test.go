package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/core/services"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

type TokenServiceTestSuite struct {
	suite.Suite
	cfg       *config.Config
	mockUsers *MockUserRepository
	service   portssvc.TokenSvcFacade
	ctx       context.Context
}

func (suite *TokenServiceTestSuite) SetupTest() {
	suite.cfg = &config.Config{
		JWTSecret:         "test-secret",
		JWTIssuer:         "tipbit-test",
		JWTExpiryDuration: time.Hour,
	}
	suite.mockUsers = new(MockUserRepository)
	suite.service = services.NewTokenService(suite.cfg, suite.mockUsers)
	suite.ctx = context.Background()
}

func (suite *TokenServiceTestSuite) TestGenerateAndVerifyRoundTrip() {
	user := &domain.User{ID: "user-1", Role: domain.RoleUser}

	token, expiry, err := suite.service.GenerateAccessToken(suite.ctx, user)
	suite.Require().NoError(err)
	suite.NotEmpty(token)
	suite.WithinDuration(time.Now().Add(time.Hour), expiry, time.Minute)

	suite.mockUsers.On("FindUserByID", mock.Anything, "user-1").Return(user, nil).Once()

	userID, role, err := suite.service.VerifyAccessToken(suite.ctx, token)
	suite.Require().NoError(err)
	suite.Equal("user-1", userID)
	suite.Equal(domain.RoleUser, role)
}

func (suite *TokenServiceTestSuite) TestVerifyReturnsCurrentRole() {
	token, _, err := suite.service.GenerateAccessToken(suite.ctx, &domain.User{ID: "user-1", Role: domain.RoleUser})
	suite.Require().NoError(err)

	// role changed after the token was minted
	suite.mockUsers.On("FindUserByID", mock.Anything, "user-1").
		Return(&domain.User{ID: "user-1", Role: domain.RoleAdmin}, nil).Once()

	_, role, err := suite.service.VerifyAccessToken(suite.ctx, token)
	suite.Require().NoError(err)
	suite.Equal(domain.RoleAdmin, role)
}

func (suite *TokenServiceTestSuite) TestVerifyRejectsTamperedToken() {
	token, _, err := suite.service.GenerateAccessToken(suite.ctx, &domain.User{ID: "user-1"})
	suite.Require().NoError(err)

	_, _, err = suite.service.VerifyAccessToken(suite.ctx, token+"x")
	suite.Error(err)
	suite.mockUsers.AssertNotCalled(suite.T(), "FindUserByID", mock.Anything, mock.Anything)
}

func (suite *TokenServiceTestSuite) TestVerifyRejectsExpiredToken() {
	suite.cfg.JWTExpiryDuration = -time.Minute
	token, _, err := suite.service.GenerateAccessToken(suite.ctx, &domain.User{ID: "user-1"})
	suite.Require().NoError(err)

	_, _, err = suite.service.VerifyAccessToken(suite.ctx, token)
	suite.ErrorIs(err, jwt.ErrTokenExpired)
}

func (suite *TokenServiceTestSuite) TestVerifyFailsForDeletedUser() {
	token, _, err := suite.service.GenerateAccessToken(suite.ctx, &domain.User{ID: "user-1"})
	suite.Require().NoError(err)

	suite.mockUsers.On("FindUserByID", mock.Anything, "user-1").Return(nil, apperrors.ErrNotFound).Once()

	_, _, err = suite.service.VerifyAccessToken(suite.ctx, token)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestTokenServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}
