package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

const (
	keySize   = 32
	nonceSize = 24
)

// encryptionService implements EncryptionSvc with NaCl primitives: anonymous
// sealed boxes for transit, secretbox with a prepended random nonce for
// storage. All keys and ciphertexts are base64url without padding.
type encryptionService struct {
	storageKey     *[keySize]byte
	transitPublic  *[keySize]byte
	transitPrivate *[keySize]byte
}

// NewEncryptionService decodes the configured key material up front so that a
// misconfigured deployment fails at startup rather than on the first secret.
func NewEncryptionService(cfg *config.Config) (services.EncryptionSvc, error) {
	storageKey, err := decodeKey(cfg.StorageEncryptionKey, "storage encryption key")
	if err != nil {
		return nil, err
	}
	transitPublic, err := decodeKey(cfg.TransitPublicKey, "transit public key")
	if err != nil {
		return nil, err
	}
	transitPrivate, err := decodeKey(cfg.TransitPrivateKey, "transit private key")
	if err != nil {
		return nil, err
	}
	return &encryptionService{
		storageKey:     storageKey,
		transitPublic:  transitPublic,
		transitPrivate: transitPrivate,
	}, nil
}

func decodeKey(encoded, name string) (*[keySize]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%s is not configured", name)
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64url: %w", name, err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("%s must be %d bytes, got %d", name, keySize, len(raw))
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &key, nil
}

func (s *encryptionService) EncryptForTransit(plaintext string) (string, error) {
	sealed, err := box.SealAnonymous(nil, []byte(plaintext), s.transitPublic, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to seal transit secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *encryptionService) DecryptTransit(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", apperrors.ErrDecryptionFailed
	}
	plain, ok := box.OpenAnonymous(nil, raw, s.transitPublic, s.transitPrivate)
	if !ok {
		return "", apperrors.ErrDecryptionFailed
	}
	return string(plain), nil
}

func (s *encryptionService) EncryptForStorage(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate storage nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, s.storageKey)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *encryptionService) DecryptFromStorage(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", apperrors.ErrDecryptionFailed
	}
	if len(raw) < nonceSize {
		return "", apperrors.ErrDecryptionFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, s.storageKey)
	if !ok {
		return "", apperrors.ErrDecryptionFailed
	}
	return string(plain), nil
}

// GenerateStorageKey produces a fresh random storage key, encoded for config.
func GenerateStorageKey() (string, error) {
	var key [keySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key[:]), nil
}

// GenerateTransitKeyPair produces a fresh transit key pair, encoded for config.
func GenerateTransitKeyPair() (publicKey, privateKey string, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}
	return base64.RawURLEncoding.EncodeToString(pub[:]), base64.RawURLEncoding.EncodeToString(priv[:]), nil
}
