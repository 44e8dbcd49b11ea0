package strike

import (
	"context"
	"fmt"
	"sync"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

// storageDecryptor decrypts storage-scheme ciphertexts. Satisfied by the
// encryption service.
type storageDecryptor interface {
	DecryptFromStorage(ciphertext string) (string, error)
}

// Credential selects which API key a gateway call runs under. A connection
// credential that is missing or undecryptable fails the call with
// apperrors.ErrCredentialUnavailable; it never silently falls back to the
// deployment-wide key unless the call site opted in explicitly.
type Credential struct {
	encryptedKey        string
	allowGlobalFallback bool
}

// ServiceCredential selects the deployment-wide Strike API key. Only
// pre-declared public call sites (invoice-by-handle for public tip pages) use this.
func ServiceCredential() Credential {
	return Credential{allowGlobalFallback: true}
}

// ConnectionCredential selects a specific connection's storage-encrypted API key.
func ConnectionCredential(encryptedKey string) Credential {
	return Credential{encryptedKey: encryptedKey}
}

// ConnectionCredentialWithFallback selects a connection's key but permits the
// deployment-wide key when the connection has none stored.
func ConnectionCredentialWithFallback(encryptedKey string) Credential {
	return Credential{encryptedKey: encryptedKey, allowGlobalFallback: true}
}

// Service is the Strike provider gateway. It owns the lazily-initialized
// global client (guarded init-once, safe under concurrent first use) and
// constructs per-connection clients from decrypted credentials.
type Service struct {
	cfg       *config.Config
	decryptor storageDecryptor

	globalOnce   sync.Once
	globalClient *Client
	globalErr    error
}

// NewService creates the Strike gateway service.
func NewService(cfg *config.Config, decryptor storageDecryptor) *Service {
	return &Service{cfg: cfg, decryptor: decryptor}
}

// Global returns the client authenticated with the deployment-wide API key.
func (s *Service) Global() (*Client, error) {
	s.globalOnce.Do(func() {
		if s.cfg.StrikeAPIKey == "" {
			s.globalErr = fmt.Errorf("strike service API key not configured: %w", apperrors.ErrCredentialUnavailable)
			return
		}
		s.globalClient = NewClient(s.cfg.StrikeAPIURL, s.cfg.StrikeAPIKey, s.cfg.StrikeTimeout)
	})
	return s.globalClient, s.globalErr
}

// ClientFor resolves the client for a credential selector.
func (s *Service) ClientFor(cred Credential) (*Client, error) {
	if cred.encryptedKey != "" {
		apiKey, err := s.decryptor.DecryptFromStorage(cred.encryptedKey)
		if err != nil {
			// An undecryptable credential is unusable, not a server fault.
			return nil, fmt.Errorf("stored strike credential is unusable: %w", apperrors.ErrCredentialUnavailable)
		}
		return NewClient(s.cfg.StrikeAPIURL, apiKey, s.cfg.StrikeTimeout), nil
	}
	if cred.allowGlobalFallback {
		return s.Global()
	}
	return nil, fmt.Errorf("connection has no strike credential: %w", apperrors.ErrCredentialUnavailable)
}

// IssueInvoice issues an invoice under the selected credential.
func (s *Service) IssueInvoice(ctx context.Context, cred Credential, req CreateInvoiceRequest) (*Invoice, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.IssueInvoice(ctx, req)
}

// IssueInvoiceForReceiver issues an invoice for another handle under the selected credential.
func (s *Service) IssueInvoiceForReceiver(ctx context.Context, cred Credential, handle string, req CreateInvoiceRequest) (*Invoice, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.IssueInvoiceForReceiver(ctx, handle, req)
}

// CreateQuote creates a quote for an invoice under the selected credential.
func (s *Service) CreateQuote(ctx context.Context, cred Credential, invoiceID string) (*Quote, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.CreateQuote(ctx, invoiceID)
}

// GetInvoice fetches an invoice under the selected credential.
func (s *Service) GetInvoice(ctx context.Context, cred Credential, invoiceID string) (*Invoice, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.GetInvoice(ctx, invoiceID)
}

// CancelInvoice cancels an invoice under the selected credential.
func (s *Service) CancelInvoice(ctx context.Context, cred Credential, invoiceID string) (*Invoice, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.CancelInvoice(ctx, invoiceID)
}

// FetchProfileByHandle fetches an account profile by handle under the selected credential.
func (s *Service) FetchProfileByHandle(ctx context.Context, cred Credential, handle string) (*AccountProfile, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.FetchProfileByHandle(ctx, handle)
}

// FetchProfileByID fetches an account profile by Strike account id under the selected credential.
func (s *Service) FetchProfileByID(ctx context.Context, cred Credential, id string) (*AccountProfile, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.FetchProfileByID(ctx, id)
}

// CreateReceiveRequest creates a receive request under the selected credential.
func (s *Service) CreateReceiveRequest(ctx context.Context, cred Credential, req CreateReceiveRequest) (*ReceiveRequest, error) {
	client, err := s.ClientFor(cred)
	if err != nil {
		return nil, err
	}
	return client.CreateReceiveRequest(ctx, req)
}
