package services_test

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
)

// MockTxManager runs the callback with a nil transaction; repository mocks
// return themselves from WithTx, so the nil tx is never dereferenced.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, nil)
}

// MockUserRepository is a mock implementation of portsrepo.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateAvatarURL(ctx context.Context, userID string, avatarURL string) error {
	args := m.Called(ctx, userID, avatarURL)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUsername(ctx context.Context, userID string, username string) error {
	args := m.Called(ctx, userID, username)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateSettings(ctx context.Context, userID string, displayName *string, isPublic *bool) error {
	args := m.Called(ctx, userID, displayName, isPublic)
	return args.Error(0)
}

func (m *MockUserRepository) WithTx(tx pgx.Tx) portsrepo.UserRepository {
	return m
}

// MockAuthConnectionRepository is a mock implementation of portsrepo.AuthConnectionRepository.
type MockAuthConnectionRepository struct {
	mock.Mock
}

func (m *MockAuthConnectionRepository) SaveAuthConnection(ctx context.Context, conn domain.AuthConnection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockAuthConnectionRepository) FindByProviderUser(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.AuthConnection, error) {
	args := m.Called(ctx, provider, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthConnection), args.Error(1)
}

func (m *MockAuthConnectionRepository) FindByUserID(ctx context.Context, userID string) ([]domain.AuthConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuthConnection), args.Error(1)
}

func (m *MockAuthConnectionRepository) WithTx(tx pgx.Tx) portsrepo.AuthConnectionRepository {
	return m
}

// MockCredentialRepository is a mock implementation of portsrepo.CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) SaveCredential(ctx context.Context, cred domain.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepository) FindCredentialByID(ctx context.Context, credentialID string) (*domain.Credential, error) {
	args := m.Called(ctx, credentialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindCredentialsByUserID(ctx context.Context, userID string) ([]domain.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) UpdateCounter(ctx context.Context, credentialID string, counter uint32) error {
	args := m.Called(ctx, credentialID, counter)
	return args.Error(0)
}

func (m *MockCredentialRepository) WithTx(tx pgx.Tx) portsrepo.CredentialRepository {
	return m
}

// MockConnectionRepository is a mock implementation of portsrepo.ConnectionRepository.
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindConnectionByID(ctx context.Context, connectionID string) (*domain.ConnectionWithDetail, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConnectionWithDetail), args.Error(1)
}

func (m *MockConnectionRepository) FindConnectionsByUserID(ctx context.Context, userID string, enabledOnly bool) ([]domain.ConnectionWithDetail, error) {
	args := m.Called(ctx, userID, enabledOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConnectionWithDetail), args.Error(1)
}

func (m *MockConnectionRepository) FindLatestByUserAndService(ctx context.Context, userID string, serviceType domain.PaymentServiceType, enabledOnly bool) (*domain.ConnectionWithDetail, error) {
	args := m.Called(ctx, userID, serviceType, enabledOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConnectionWithDetail), args.Error(1)
}

func (m *MockConnectionRepository) SaveConnection(ctx context.Context, conn domain.PaymentConnection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) SaveStrikeConnection(ctx context.Context, detail domain.StrikeConnection) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *MockConnectionRepository) SaveCoinosConnection(ctx context.Context, detail domain.CoinosConnection) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *MockConnectionRepository) SaveAlbyConnection(ctx context.Context, detail domain.AlbyConnection) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *MockConnectionRepository) UpdateConnection(ctx context.Context, connectionID string, name *string, isEnabled *bool) error {
	args := m.Called(ctx, connectionID, name, isEnabled)
	return args.Error(0)
}

func (m *MockConnectionRepository) UpdateStrikeAPIKey(ctx context.Context, connectionID string, apiKey *string) error {
	args := m.Called(ctx, connectionID, apiKey)
	return args.Error(0)
}

func (m *MockConnectionRepository) UpdateCoinosAPIKey(ctx context.Context, connectionID string, apiKey string) error {
	args := m.Called(ctx, connectionID, apiKey)
	return args.Error(0)
}

func (m *MockConnectionRepository) UpdateAlbyTokens(ctx context.Context, connectionID string, accessToken *string, refreshToken domain.OptionalSecret) error {
	args := m.Called(ctx, connectionID, accessToken, refreshToken)
	return args.Error(0)
}

func (m *MockConnectionRepository) DeleteConnection(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockConnectionRepository) FindPrioritiesByOwnerID(ctx context.Context, ownerID string) ([]domain.ConnectionPriority, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConnectionPriority), args.Error(1)
}

func (m *MockConnectionRepository) ReplacePriorities(ctx context.Context, ownerID string, connectionIDs []string) ([]domain.ConnectionPriority, error) {
	args := m.Called(ctx, ownerID, connectionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConnectionPriority), args.Error(1)
}

func (m *MockConnectionRepository) WithTx(tx pgx.Tx) portsrepo.ConnectionRepository {
	return m
}
