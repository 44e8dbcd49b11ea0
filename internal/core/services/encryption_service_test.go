package services_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/services"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

func newEncryptionConfig(t *testing.T) *config.Config {
	t.Helper()
	storageKey, err := services.GenerateStorageKey()
	require.NoError(t, err)
	transitPublic, transitPrivate, err := services.GenerateTransitKeyPair()
	require.NoError(t, err)
	return &config.Config{
		StorageEncryptionKey: storageKey,
		TransitPublicKey:     transitPublic,
		TransitPrivateKey:    transitPrivate,
	}
}

type EncryptionServiceTestSuite struct {
	suite.Suite
	cfg *config.Config
}

func (suite *EncryptionServiceTestSuite) SetupTest() {
	suite.cfg = newEncryptionConfig(suite.T())
}

func (suite *EncryptionServiceTestSuite) TestStorageRoundTrip() {
	svc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)

	ciphertext, err := svc.EncryptForStorage("sk-very-secret")
	suite.Require().NoError(err)
	suite.NotEqual("sk-very-secret", ciphertext)

	plaintext, err := svc.DecryptFromStorage(ciphertext)
	suite.Require().NoError(err)
	suite.Equal("sk-very-secret", plaintext)
}

func (suite *EncryptionServiceTestSuite) TestStorageEncryptionUsesFreshNonces() {
	svc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)

	first, err := svc.EncryptForStorage("same input")
	suite.Require().NoError(err)
	second, err := svc.EncryptForStorage("same input")
	suite.Require().NoError(err)

	suite.NotEqual(first, second)
}

func (suite *EncryptionServiceTestSuite) TestStorageDecryptRejectsTampering() {
	svc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)

	ciphertext, err := svc.EncryptForStorage("payload")
	suite.Require().NoError(err)

	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	suite.Require().NoError(err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	_, err = svc.DecryptFromStorage(tampered)
	suite.ErrorIs(err, apperrors.ErrDecryptionFailed)
}

func (suite *EncryptionServiceTestSuite) TestStorageDecryptRejectsWrongKey() {
	svc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)
	other, err := services.NewEncryptionService(newEncryptionConfig(suite.T()))
	suite.Require().NoError(err)

	ciphertext, err := svc.EncryptForStorage("payload")
	suite.Require().NoError(err)

	_, err = other.DecryptFromStorage(ciphertext)
	suite.ErrorIs(err, apperrors.ErrDecryptionFailed)
}

func (suite *EncryptionServiceTestSuite) TestStorageDecryptRejectsGarbage() {
	svc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)

	_, err = svc.DecryptFromStorage("not base64!!")
	suite.ErrorIs(err, apperrors.ErrDecryptionFailed)

	_, err = svc.DecryptFromStorage(base64.RawURLEncoding.EncodeToString([]byte("short")))
	suite.ErrorIs(err, apperrors.ErrDecryptionFailed)
}

func (suite *EncryptionServiceTestSuite) TestTransitRoundTrip() {
	svc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)

	sealed, err := svc.EncryptForTransit("api-key-from-browser")
	suite.Require().NoError(err)

	plaintext, err := svc.DecryptTransit(sealed)
	suite.Require().NoError(err)
	suite.Equal("api-key-from-browser", plaintext)
}

func (suite *EncryptionServiceTestSuite) TestTransitDecryptRejectsWrongKey() {
	svc, err := services.NewEncryptionService(suite.cfg)
	suite.Require().NoError(err)
	other, err := services.NewEncryptionService(newEncryptionConfig(suite.T()))
	suite.Require().NoError(err)

	sealed, err := svc.EncryptForTransit("secret")
	suite.Require().NoError(err)

	_, err = other.DecryptTransit(sealed)
	suite.ErrorIs(err, apperrors.ErrDecryptionFailed)
}

func (suite *EncryptionServiceTestSuite) TestConstructorRejectsMissingKeys() {
	cfg := newEncryptionConfig(suite.T())
	cfg.StorageEncryptionKey = ""
	_, err := services.NewEncryptionService(cfg)
	suite.Error(err)

	cfg = newEncryptionConfig(suite.T())
	cfg.TransitPrivateKey = "%%%not-base64"
	_, err = services.NewEncryptionService(cfg)
	suite.Error(err)

	cfg = newEncryptionConfig(suite.T())
	cfg.TransitPublicKey = base64.RawURLEncoding.EncodeToString([]byte("too short"))
	_, err = services.NewEncryptionService(cfg)
	suite.Error(err)
}

func TestEncryptionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EncryptionServiceTestSuite))
}
