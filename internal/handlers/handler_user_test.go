package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/middleware"
)

// stubTokenService accepts the fixed token "valid-token" for user-1.
type stubTokenService struct{}

func (stubTokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	return "valid-token", time.Now().Add(time.Hour), nil
}

func (stubTokenService) VerifyAccessToken(ctx context.Context, token string) (string, domain.Role, error) {
	if token != "valid-token" {
		return "", "", apperrors.ErrUnauthorized
	}
	return "user-1", domain.RoleUser, nil
}

// MockUserService is a mock implementation of portssvc.UserSvcFacade.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) GetPublicProfile(ctx context.Context, username string, requesterID string) (*dto.PublicProfileResponse, error) {
	args := m.Called(ctx, username, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PublicProfileResponse), args.Error(1)
}

func (m *MockUserService) ListAuthAccounts(ctx context.Context, userID string) ([]dto.AuthAccountResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.AuthAccountResponse), args.Error(1)
}

func (m *MockUserService) UpdateUsername(ctx context.Context, userID string, username string) (*domain.User, error) {
	args := m.Called(ctx, userID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) UpdateSettings(ctx context.Context, userID string, req dto.UpdateSettingsRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type UserHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockUserService
}

func (suite *UserHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockService = new(MockUserService)
	suite.router = gin.New()

	registerProfileRoutes(suite.router, suite.mockService)

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(stubTokenService{}))
	registerUserRoutes(v1, suite.mockService)
}

func (suite *UserHandlerTestSuite) perform(method, path, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *UserHandlerTestSuite) TestGetMe() {
	user := &domain.User{ID: "user-1", Username: "alice", DisplayName: "Alice", Role: domain.RoleUser, IsPublic: true}
	suite.mockService.On("GetUserByID", mock.Anything, "user-1").Return(user, nil).Once()

	w := suite.perform(http.MethodGet, "/api/v1/users/me", "valid-token", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.UserResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("alice", resp.Username)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *UserHandlerTestSuite) TestGetMeWithoutToken() {
	w := suite.perform(http.MethodGet, "/api/v1/users/me", "", "")

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "GetUserByID", mock.Anything, mock.Anything)
}

func (suite *UserHandlerTestSuite) TestGetMeWithBadToken() {
	w := suite.perform(http.MethodGet, "/api/v1/users/me", "forged", "")

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *UserHandlerTestSuite) TestUpdateUsername() {
	updated := &domain.User{ID: "user-1", Username: "new_handle"}
	suite.mockService.On("UpdateUsername", mock.Anything, "user-1", "new_handle").Return(updated, nil).Once()

	w := suite.perform(http.MethodPatch, "/api/v1/users/me/username", "valid-token", `{"username":"new_handle"}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *UserHandlerTestSuite) TestUpdateUsernameConflict() {
	suite.mockService.On("UpdateUsername", mock.Anything, "user-1", "taken").
		Return(nil, apperrors.NewConflictError("username already taken")).Once()

	w := suite.perform(http.MethodPatch, "/api/v1/users/me/username", "valid-token", `{"username":"taken"}`)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(w.Body.String(), "username already taken")
}

func (suite *UserHandlerTestSuite) TestUpdateUsernameMissingBody() {
	w := suite.perform(http.MethodPatch, "/api/v1/users/me/username", "valid-token", `{}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "UpdateUsername", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserHandlerTestSuite) TestGetPublicProfile() {
	profile := &dto.PublicProfileResponse{Username: "alice", DisplayName: "Alice"}
	suite.mockService.On("GetPublicProfile", mock.Anything, "alice", "").Return(profile, nil).Once()

	w := suite.perform(http.MethodGet, "/profiles/alice", "", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "alice")
}

func (suite *UserHandlerTestSuite) TestGetPublicProfileHidden() {
	suite.mockService.On("GetPublicProfile", mock.Anything, "ghost", "").Return(nil, apperrors.ErrNotFound).Once()

	w := suite.perform(http.MethodGet, "/profiles/ghost", "", "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *UserHandlerTestSuite) TestListAuthAccounts() {
	accounts := []dto.AuthAccountResponse{{Provider: domain.ProviderGitHub, ProviderUserID: "12345"}}
	suite.mockService.On("ListAuthAccounts", mock.Anything, "user-1").Return(accounts, nil).Once()

	w := suite.perform(http.MethodGet, "/api/v1/users/me/accounts", "valid-token", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "github")
}

func TestUserHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerTestSuite))
}
