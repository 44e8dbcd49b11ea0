package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/core/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/gateways/strike"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

type ConnectionServiceTestSuite struct {
	suite.Suite
	mockTx     *MockTxManager
	mockConns  *MockConnectionRepository
	encryption portssvc.EncryptionSvc
	cfg        *config.Config
	service    portssvc.ConnectionSvcFacade
	ctx        context.Context
}

func (suite *ConnectionServiceTestSuite) SetupTest() {
	suite.mockTx = new(MockTxManager)
	suite.mockConns = new(MockConnectionRepository)
	suite.cfg = newEncryptionConfig(suite.T())
	suite.cfg.StrikeTimeout = 5 * time.Second

	enc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)
	suite.encryption = enc

	suite.service = services.NewConnectionService(suite.mockTx, suite.mockConns, suite.encryption, strike.NewService(suite.cfg, enc))
	suite.ctx = context.Background()
}

// transitCiphertext encrypts a plaintext the way the browser would before
// submitting it.
func (suite *ConnectionServiceTestSuite) transitCiphertext(plaintext string) string {
	sealed, err := suite.encryption.EncryptForTransit(plaintext)
	suite.Require().NoError(err)
	return sealed
}

func strikeConnection(id, userID string, apiKey *string) *domain.ConnectionWithDetail {
	return &domain.ConnectionWithDetail{
		PaymentConnection: domain.PaymentConnection{
			ID:          id,
			UserID:      userID,
			ServiceType: domain.ServiceStrike,
			IsEnabled:   true,
		},
		Strike: &domain.StrikeConnection{
			ID:              id + "-detail",
			ConnectionID:    id,
			StrikeProfileID: "profile-1",
			Handle:          "tipper",
			APIKey:          apiKey,
		},
	}
}

func (suite *ConnectionServiceTestSuite) TestListConnectionsSanitizesCredentials() {
	key := "storage-ciphertext"
	conns := []domain.ConnectionWithDetail{*strikeConnection("conn-1", "user-1", &key)}

	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", true).Return(conns, nil).Once()

	responses, err := suite.service.ListConnections(suite.ctx, "user-1")

	suite.Require().NoError(err)
	suite.Require().Len(responses, 1)
	suite.Require().NotNil(responses[0].Strike)
	suite.True(responses[0].Strike.HasAPIKey)

	payload, err := json.Marshal(responses[0])
	suite.Require().NoError(err)
	suite.NotContains(string(payload), key)
}

func (suite *ConnectionServiceTestSuite) TestGetConnectionHidesOtherOwners() {
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").
		Return(strikeConnection("conn-1", "someone-else", nil), nil).Once()

	_, err := suite.service.GetConnection(suite.ctx, "user-1", "conn-1")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ConnectionServiceTestSuite) TestResolveActiveConnectionFollowsPriority() {
	first := *strikeConnection("conn-1", "user-1", nil)
	second := *strikeConnection("conn-2", "user-1", nil)

	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", true).
		Return([]domain.ConnectionWithDetail{first, second}, nil).Once()
	suite.mockConns.On("FindPrioritiesByOwnerID", mock.Anything, "user-1").
		Return([]domain.ConnectionPriority{
			{ConnectionID: "conn-2", Priority: 1},
			{ConnectionID: "conn-1", Priority: 2},
		}, nil).Once()

	active, err := suite.service.ResolveActiveConnection(suite.ctx, "user-1")

	suite.Require().NoError(err)
	suite.Equal("conn-2", active.ID)
}

func (suite *ConnectionServiceTestSuite) TestResolveActiveConnectionSkipsDisabledRanked() {
	enabled := *strikeConnection("conn-2", "user-1", nil)

	// conn-1 leads the ranking but is disabled, so it is absent from the
	// enabled list and the ranking falls through to conn-2.
	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", true).
		Return([]domain.ConnectionWithDetail{enabled}, nil).Once()
	suite.mockConns.On("FindPrioritiesByOwnerID", mock.Anything, "user-1").
		Return([]domain.ConnectionPriority{
			{ConnectionID: "conn-1", Priority: 1},
			{ConnectionID: "conn-2", Priority: 2},
		}, nil).Once()

	active, err := suite.service.ResolveActiveConnection(suite.ctx, "user-1")

	suite.Require().NoError(err)
	suite.Equal("conn-2", active.ID)
}

func (suite *ConnectionServiceTestSuite) TestResolveActiveConnectionFallsBackToOldest() {
	oldest := *strikeConnection("conn-1", "user-1", nil)
	newer := *strikeConnection("conn-2", "user-1", nil)

	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", true).
		Return([]domain.ConnectionWithDetail{oldest, newer}, nil).Once()
	suite.mockConns.On("FindPrioritiesByOwnerID", mock.Anything, "user-1").
		Return([]domain.ConnectionPriority{}, nil).Once()

	active, err := suite.service.ResolveActiveConnection(suite.ctx, "user-1")

	suite.Require().NoError(err)
	suite.Equal("conn-1", active.ID)
}

func (suite *ConnectionServiceTestSuite) TestResolveActiveConnectionNoneEnabled() {
	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", true).
		Return([]domain.ConnectionWithDetail{}, nil).Once()

	_, err := suite.service.ResolveActiveConnection(suite.ctx, "user-1")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ConnectionServiceTestSuite) TestEncryptedCredentialReturnsStoredCiphertext() {
	key := "storage-ciphertext"
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").
		Return(strikeConnection("conn-1", "user-1", &key), nil).Once()

	ciphertext, serviceType, err := suite.service.EncryptedCredential(suite.ctx, "conn-1")

	suite.Require().NoError(err)
	suite.Equal("storage-ciphertext", ciphertext)
	suite.Equal(domain.ServiceStrike, serviceType)
}

func (suite *ConnectionServiceTestSuite) TestEncryptedCredentialMissingKey() {
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").
		Return(strikeConnection("conn-1", "user-1", nil), nil).Once()

	_, _, err := suite.service.EncryptedCredential(suite.ctx, "conn-1")

	suite.ErrorIs(err, apperrors.ErrCredentialUnavailable)
}

func (suite *ConnectionServiceTestSuite) TestEncryptedCredentialDisabledConnection() {
	key := "storage-ciphertext"
	conn := strikeConnection("conn-1", "user-1", &key)
	conn.IsEnabled = false

	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").Return(conn, nil).Once()

	_, _, err := suite.service.EncryptedCredential(suite.ctx, "conn-1")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ConnectionServiceTestSuite) TestCreateConnectionReencryptsCredential() {
	transit := suite.transitCiphertext("sk-plain-key")
	serviceData, err := json.Marshal(dto.StrikeServiceDataRequest{
		StrikeProfileID: "profile-1",
		Handle:          "tipper",
		APIKey:          &transit,
	})
	suite.Require().NoError(err)

	var storedKey string

	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockConns.On("SaveConnection", mock.Anything, mock.MatchedBy(func(c domain.PaymentConnection) bool {
		return c.UserID == "user-1" && c.ServiceType == domain.ServiceStrike && c.IsEnabled
	})).Return(nil).Once()
	suite.mockConns.On("SaveStrikeConnection", mock.Anything, mock.AnythingOfType("domain.StrikeConnection")).
		Run(func(args mock.Arguments) {
			detail := args.Get(1).(domain.StrikeConnection)
			suite.Require().NotNil(detail.APIKey)
			storedKey = *detail.APIKey
		}).Return(nil).Once()
	suite.mockConns.On("FindConnectionByID", mock.Anything, mock.AnythingOfType("string")).
		Return(strikeConnection("conn-1", "user-1", nil), nil).Once()

	_, err = suite.service.CreateConnection(suite.ctx, "user-1", dto.CreateConnectionRequest{
		ServiceType: "strike",
		ServiceData: serviceData,
	})

	suite.Require().NoError(err)
	suite.NotEqual("sk-plain-key", storedKey)
	suite.NotEqual(transit, storedKey)

	plaintext, err := suite.encryption.DecryptFromStorage(storedKey)
	suite.Require().NoError(err)
	suite.Equal("sk-plain-key", plaintext)
}

func (suite *ConnectionServiceTestSuite) TestCreateConnectionRejectsUnknownService() {
	_, err := suite.service.CreateConnection(suite.ctx, "user-1", dto.CreateConnectionRequest{
		ServiceType: "paypal",
		ServiceData: json.RawMessage(`{}`),
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTx.AssertNotCalled(suite.T(), "WithinTx", mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestCreateConnectionRejectsForgedTransitCiphertext() {
	forged := "bm90LXJlYWwtY2lwaGVydGV4dA"
	serviceData, err := json.Marshal(dto.CoinosServiceDataRequest{CoinosUsername: "tipper", APIKey: forged})
	suite.Require().NoError(err)

	_, err = suite.service.CreateConnection(suite.ctx, "user-1", dto.CreateConnectionRequest{
		ServiceType: "coinos",
		ServiceData: serviceData,
	})

	suite.ErrorIs(err, apperrors.ErrDecryptionFailed)
}

func (suite *ConnectionServiceTestSuite) TestUpdateConnectionRemovesStrikeKey() {
	key := "storage-ciphertext"
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").
		Return(strikeConnection("conn-1", "user-1", &key), nil).Twice()
	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockConns.On("UpdateStrikeAPIKey", mock.Anything, "conn-1", (*string)(nil)).Return(nil).Once()

	_, err := suite.service.UpdateConnection(suite.ctx, "user-1", "conn-1", dto.UpdateConnectionRequest{
		ServiceData: &dto.ServiceDataPatchRequest{APIKey: json.RawMessage(`null`)},
	})

	suite.Require().NoError(err)
	suite.mockConns.AssertExpectations(suite.T())
}

func (suite *ConnectionServiceTestSuite) TestUpdateConnectionRejectsCoinosKeyRemoval() {
	conn := &domain.ConnectionWithDetail{
		PaymentConnection: domain.PaymentConnection{ID: "conn-1", UserID: "user-1", ServiceType: domain.ServiceCoinos, IsEnabled: true},
		Coinos:            &domain.CoinosConnection{ConnectionID: "conn-1", CoinosUsername: "tipper", APIKey: "stored"},
	}
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").Return(conn, nil).Once()
	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := suite.service.UpdateConnection(suite.ctx, "user-1", "conn-1", dto.UpdateConnectionRequest{
		ServiceData: &dto.ServiceDataPatchRequest{APIKey: json.RawMessage(`null`)},
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockConns.AssertNotCalled(suite.T(), "UpdateCoinosAPIKey", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestUpdateConnectionLeavesAbsentFieldsUntouched() {
	key := "storage-ciphertext"
	name := "My wallet"
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").
		Return(strikeConnection("conn-1", "user-1", &key), nil).Twice()
	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockConns.On("UpdateConnection", mock.Anything, "conn-1", &name, (*bool)(nil)).Return(nil).Once()

	_, err := suite.service.UpdateConnection(suite.ctx, "user-1", "conn-1", dto.UpdateConnectionRequest{Name: &name})

	suite.Require().NoError(err)
	suite.mockConns.AssertNotCalled(suite.T(), "UpdateStrikeAPIKey", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestDeleteConnectionEnforcesOwnership() {
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").
		Return(strikeConnection("conn-1", "someone-else", nil), nil).Once()

	err := suite.service.DeleteConnection(suite.ctx, "user-1", "conn-1")

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockConns.AssertNotCalled(suite.T(), "DeleteConnection", mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestReorderConnections() {
	owned := []domain.ConnectionWithDetail{
		*strikeConnection("conn-1", "user-1", nil),
		*strikeConnection("conn-2", "user-1", nil),
	}
	order := []string{"conn-2", "conn-1"}
	result := []domain.ConnectionPriority{
		{ConnectionID: "conn-2", Priority: 1},
		{ConnectionID: "conn-1", Priority: 2},
	}

	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", false).Return(owned, nil).Once()
	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockConns.On("ReplacePriorities", mock.Anything, "user-1", order).Return(result, nil).Once()

	priorities, err := suite.service.ReorderConnections(suite.ctx, "user-1", order)

	suite.Require().NoError(err)
	suite.Require().Len(priorities, 2)
	suite.Equal("conn-2", priorities[0].ConnectionID)
	suite.Equal(1, priorities[0].Priority)
}

func (suite *ConnectionServiceTestSuite) TestReorderConnectionsRejectsForeignID() {
	owned := []domain.ConnectionWithDetail{*strikeConnection("conn-1", "user-1", nil)}

	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", false).Return(owned, nil).Once()

	_, err := suite.service.ReorderConnections(suite.ctx, "user-1", []string{"conn-1", "not-mine"})

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockConns.AssertNotCalled(suite.T(), "ReplacePriorities", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestReorderConnectionsRejectsDuplicates() {
	owned := []domain.ConnectionWithDetail{*strikeConnection("conn-1", "user-1", nil)}

	suite.mockConns.On("FindConnectionsByUserID", mock.Anything, "user-1", false).Return(owned, nil).Once()

	_, err := suite.service.ReorderConnections(suite.ctx, "user-1", []string{"conn-1", "conn-1"})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

// strikeProfileServer serves the profile-by-handle endpoint and captures the
// bearer token of the last request.
func (suite *ConnectionServiceTestSuite) strikeProfileServer(profile strike.AccountProfile, lastToken *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*lastToken = r.Header.Get("Authorization")
		if r.Method != http.MethodGet || r.URL.Path != "/accounts/handle/"+profile.Handle+"/profile" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	}))
}

func (suite *ConnectionServiceTestSuite) TestConnectStrikeCreatesConnection() {
	var lastToken string
	server := suite.strikeProfileServer(strike.AccountProfile{ID: "profile-9", Handle: "tipper", CanReceive: true}, &lastToken)
	defer server.Close()

	suite.cfg.StrikeAPIURL = server.URL
	suite.cfg.StrikeAPIKey = "global-service-key"

	transit := suite.transitCiphertext("sk-user-key")
	var storedKey string

	suite.mockConns.On("FindLatestByUserAndService", mock.Anything, "user-1", domain.ServiceStrike, false).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockConns.On("SaveConnection", mock.Anything, mock.MatchedBy(func(c domain.PaymentConnection) bool {
		return c.UserID == "user-1" && c.ServiceType == domain.ServiceStrike
	})).Return(nil).Once()
	suite.mockConns.On("SaveStrikeConnection", mock.Anything, mock.MatchedBy(func(d domain.StrikeConnection) bool {
		return d.StrikeProfileID == "profile-9" && d.Handle == "tipper" && d.APIKey != nil
	})).Run(func(args mock.Arguments) {
		storedKey = *args.Get(1).(domain.StrikeConnection).APIKey
	}).Return(nil).Once()
	suite.mockConns.On("FindConnectionByID", mock.Anything, mock.AnythingOfType("string")).
		Return(strikeConnection("conn-1", "user-1", nil), nil).Once()

	_, err := suite.service.ConnectStrike(suite.ctx, "user-1", dto.StrikeConnectRequest{
		Handle: "tipper",
		APIKey: &transit,
	})

	suite.Require().NoError(err)
	// the submitted key, not the global one, authenticated the handle check
	suite.Equal("Bearer sk-user-key", lastToken)

	plaintext, err := suite.encryption.DecryptFromStorage(storedKey)
	suite.Require().NoError(err)
	suite.Equal("sk-user-key", plaintext)
}

func (suite *ConnectionServiceTestSuite) TestConnectStrikeRefreshesExistingConnection() {
	var lastToken string
	server := suite.strikeProfileServer(strike.AccountProfile{ID: "profile-1", Handle: "tipper", CanReceive: true}, &lastToken)
	defer server.Close()

	suite.cfg.StrikeAPIURL = server.URL
	suite.cfg.StrikeAPIKey = "global-service-key"

	existing := strikeConnection("conn-1", "user-1", nil)

	suite.mockConns.On("FindLatestByUserAndService", mock.Anything, "user-1", domain.ServiceStrike, false).
		Return(existing, nil).Once()
	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockConns.On("UpdateConnection", mock.Anything, "conn-1", (*string)(nil), mock.AnythingOfType("*bool")).Return(nil).Once()
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-1").Return(existing, nil).Once()

	_, err := suite.service.ConnectStrike(suite.ctx, "user-1", dto.StrikeConnectRequest{Handle: "tipper"})

	suite.Require().NoError(err)
	suite.Equal("Bearer global-service-key", lastToken)
	suite.mockConns.AssertNotCalled(suite.T(), "SaveConnection", mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestConnectStrikeReplacesChangedProfile() {
	var lastToken string
	server := suite.strikeProfileServer(strike.AccountProfile{ID: "profile-2", Handle: "tipper", CanReceive: true}, &lastToken)
	defer server.Close()

	suite.cfg.StrikeAPIURL = server.URL
	suite.cfg.StrikeAPIKey = "global-service-key"

	// stored profile is "profile-1"; the verified one differs
	old := strikeConnection("conn-old", "user-1", nil)
	connID := "conn-old"

	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn-old").Return(old, nil).Once()
	suite.mockTx.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockConns.On("DeleteConnection", mock.Anything, "conn-old").Return(nil).Once()
	suite.mockConns.On("SaveConnection", mock.Anything, mock.MatchedBy(func(c domain.PaymentConnection) bool {
		return c.UserID == "user-1" && c.ServiceType == domain.ServiceStrike && c.ID != "conn-old"
	})).Return(nil).Once()
	suite.mockConns.On("SaveStrikeConnection", mock.Anything, mock.MatchedBy(func(d domain.StrikeConnection) bool {
		return d.StrikeProfileID == "profile-2" && d.Handle == "tipper"
	})).Return(nil).Once()
	suite.mockConns.On("FindConnectionByID", mock.Anything, mock.AnythingOfType("string")).
		Return(strikeConnection("conn-new", "user-1", nil), nil).Once()

	_, err := suite.service.ConnectStrike(suite.ctx, "user-1", dto.StrikeConnectRequest{
		Handle:       "tipper",
		ConnectionID: &connID,
	})

	suite.Require().NoError(err)
	suite.mockConns.AssertExpectations(suite.T())
	suite.mockConns.AssertNotCalled(suite.T(), "UpdateConnection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestConnectStrikeUnknownHandle() {
	var lastToken string
	server := suite.strikeProfileServer(strike.AccountProfile{ID: "profile-1", Handle: "someoneelse"}, &lastToken)
	defer server.Close()

	suite.cfg.StrikeAPIURL = server.URL
	suite.cfg.StrikeAPIKey = "global-service-key"

	_, err := suite.service.ConnectStrike(suite.ctx, "user-1", dto.StrikeConnectRequest{Handle: "nobody"})

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTx.AssertNotCalled(suite.T(), "WithinTx", mock.Anything, mock.Anything)
}

func TestConnectionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConnectionServiceTestSuite))
}
