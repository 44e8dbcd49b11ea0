package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
	"github.com/tipbit/tipbit-backend/internal/utils"
)

const ceremonyTTL = 5 * time.Minute

type ceremonyKind int

const (
	ceremonyRegister ceremonyKind = iota
	ceremonyLogin
)

// ceremonyEntry is one pending WebAuthn ceremony. Entries are single-use and
// expire after ceremonyTTL.
type ceremonyEntry struct {
	kind        ceremonyKind
	session     webauthn.SessionData
	username    string
	displayName *string
	expiresAt   time.Time
}

// ceremonyStore is an in-memory TTL store for pending ceremonies. Expired
// entries are swept lazily on writes.
type ceremonyStore struct {
	mu      sync.Mutex
	entries map[string]ceremonyEntry
}

func newCeremonyStore() *ceremonyStore {
	return &ceremonyStore{entries: make(map[string]ceremonyEntry)}
}

func (s *ceremonyStore) put(id string, entry ceremonyEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.entries[id] = entry
}

// take removes and returns the entry; a ceremony id can only be consumed once.
func (s *ceremonyStore) take(id string, kind ceremonyKind) (ceremonyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return ceremonyEntry{}, false
	}
	delete(s.entries, id)
	if entry.kind != kind || time.Now().After(entry.expiresAt) {
		return ceremonyEntry{}, false
	}
	return entry, true
}

// webauthnUser adapts account data to the webauthn library's user interface.
type webauthnUser struct {
	id          []byte
	name        string
	displayName string
	credentials []webauthn.Credential
}

func (u *webauthnUser) WebAuthnID() []byte                         { return u.id }
func (u *webauthnUser) WebAuthnName() string                       { return u.name }
func (u *webauthnUser) WebAuthnDisplayName() string                { return u.displayName }
func (u *webauthnUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// webauthnService implements WebAuthnSvcFacade on top of go-webauthn.
type webauthnService struct {
	wa         *webauthn.WebAuthn
	resolver   portssvc.AccountResolverSvc
	ceremonies *ceremonyStore
}

// NewWebAuthnService configures the relying party from application config.
func NewWebAuthnService(cfg *config.Config, resolver portssvc.AccountResolverSvc) (portssvc.WebAuthnSvcFacade, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.WebAuthnRPID,
		RPDisplayName: cfg.WebAuthnRPDisplayName,
		RPOrigins:     cfg.WebAuthnRPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure webauthn relying party: %w", err)
	}
	return &webauthnService{
		wa:         wa,
		resolver:   resolver,
		ceremonies: newCeremonyStore(),
	}, nil
}

var _ portssvc.WebAuthnSvcFacade = (*webauthnService)(nil)

func (s *webauthnService) BeginRegistration(ctx context.Context, req dto.PasskeyRegisterBeginRequest) (*dto.CeremonyBeginResponse, error) {
	if err := utils.ValidateUsername(req.Username); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	displayName := req.Username
	if req.DisplayName != nil && *req.DisplayName != "" {
		displayName = *req.DisplayName
	}

	user := &webauthnUser{
		id:          []byte(uuid.NewString()),
		name:        req.Username,
		displayName: displayName,
	}

	options, session, err := s.wa.BeginRegistration(user,
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationPreferred,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration ceremony: %w", err)
	}

	ceremonyID, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		return nil, err
	}
	s.ceremonies.put(ceremonyID, ceremonyEntry{
		kind:        ceremonyRegister,
		session:     *session,
		username:    req.Username,
		displayName: req.DisplayName,
		expiresAt:   time.Now().Add(ceremonyTTL),
	})

	return &dto.CeremonyBeginResponse{CeremonyID: ceremonyID, Options: options}, nil
}

func (s *webauthnService) FinishRegistration(ctx context.Context, ceremonyID string, r *http.Request) (*domain.User, error) {
	entry, ok := s.ceremonies.take(ceremonyID, ceremonyRegister)
	if !ok {
		return nil, apperrors.NewBadRequestError("unknown or expired ceremony")
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(r.Body)
	if err != nil {
		return nil, apperrors.NewBadRequestError("invalid registration response")
	}

	user := &webauthnUser{
		id:          entry.session.UserID,
		name:        entry.username,
		displayName: entry.username,
	}
	cred, err := s.wa.CreateCredential(user, entry.session, parsed)
	if err != nil {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("attestation verification failed: %v", err))
	}

	reg := portssvc.PasskeyRegistration{
		CredentialID:      base64.RawURLEncoding.EncodeToString(cred.ID),
		PublicKey:         cred.PublicKey,
		Counter:           cred.Authenticator.SignCount,
		BackedUp:          cred.Flags.BackupState,
		Transports:        transportStrings(cred.Transport),
		RequestedUsername: entry.username,
		DisplayName:       entry.displayName,
	}

	resolved, err := s.resolver.ResolvePasskeyRegistration(ctx, reg)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflictError("username already taken")
		}
		return nil, err
	}
	return resolved, nil
}

func (s *webauthnService) BeginAuthentication(ctx context.Context, req dto.PasskeyAuthenticateBeginRequest) (*dto.CeremonyBeginResponse, error) {
	var (
		options *protocol.CredentialAssertion
		session *webauthn.SessionData
		err     error
	)

	if req.Username == "" {
		options, session, err = s.wa.BeginDiscoverableLogin()
	} else {
		creds, lookupErr := s.resolver.CredentialsForUsername(ctx, req.Username)
		if lookupErr != nil {
			if errors.Is(lookupErr, apperrors.ErrNotFound) {
				// same shape as a real ceremony; do not reveal which usernames exist
				return nil, apperrors.NewNotFoundError("no passkeys registered for this username")
			}
			return nil, lookupErr
		}
		if len(creds) == 0 {
			return nil, apperrors.NewNotFoundError("no passkeys registered for this username")
		}
		user := &webauthnUser{
			id:          []byte(creds[0].UserID),
			name:        req.Username,
			displayName: req.Username,
			credentials: toLibraryCredentials(creds),
		}
		options, session, err = s.wa.BeginLogin(user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to begin login ceremony: %w", err)
	}

	ceremonyID, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		return nil, err
	}
	s.ceremonies.put(ceremonyID, ceremonyEntry{
		kind:      ceremonyLogin,
		session:   *session,
		username:  req.Username,
		expiresAt: time.Now().Add(ceremonyTTL),
	})

	return &dto.CeremonyBeginResponse{CeremonyID: ceremonyID, Options: options}, nil
}

func (s *webauthnService) FinishAuthentication(ctx context.Context, ceremonyID string, r *http.Request) (*domain.User, error) {
	entry, ok := s.ceremonies.take(ceremonyID, ceremonyLogin)
	if !ok {
		return nil, apperrors.NewBadRequestError("unknown or expired ceremony")
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(r.Body)
	if err != nil {
		return nil, apperrors.NewBadRequestError("invalid authentication response")
	}

	var cred *webauthn.Credential
	if entry.username == "" {
		cred, err = s.wa.ValidateDiscoverableLogin(func(rawID, userHandle []byte) (webauthn.User, error) {
			stored, lookupErr := s.resolver.CredentialByID(ctx, base64.RawURLEncoding.EncodeToString(rawID))
			if lookupErr != nil {
				return nil, lookupErr
			}
			return &webauthnUser{
				id:          userHandle,
				name:        stored.UserID,
				displayName: stored.UserID,
				credentials: toLibraryCredentials([]domain.Credential{*stored}),
			}, nil
		}, entry.session, parsed)
	} else {
		creds, lookupErr := s.resolver.CredentialsForUsername(ctx, entry.username)
		if lookupErr != nil {
			return nil, lookupErr
		}
		user := &webauthnUser{
			id:          entry.session.UserID,
			name:        entry.username,
			displayName: entry.username,
			credentials: toLibraryCredentials(creds),
		}
		cred, err = s.wa.ValidateLogin(user, entry.session, parsed)
	}
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("passkey verification failed")
	}

	return s.resolver.ResolvePasskeyAuthentication(ctx,
		base64.RawURLEncoding.EncodeToString(cred.ID),
		cred.Authenticator.SignCount,
	)
}

func toLibraryCredentials(creds []domain.Credential) []webauthn.Credential {
	out := make([]webauthn.Credential, 0, len(creds))
	for _, c := range creds {
		rawID, err := base64.RawURLEncoding.DecodeString(c.ID)
		if err != nil {
			continue
		}
		transports := make([]protocol.AuthenticatorTransport, 0, len(c.Transports))
		for _, t := range c.Transports {
			transports = append(transports, protocol.AuthenticatorTransport(t))
		}
		out = append(out, webauthn.Credential{
			ID:        rawID,
			PublicKey: c.PublicKey,
			Transport: transports,
			Flags:     webauthn.CredentialFlags{BackupState: c.BackedUp},
			Authenticator: webauthn.Authenticator{
				SignCount: c.Counter,
			},
		})
	}
	return out
}

func transportStrings(transports []protocol.AuthenticatorTransport) []string {
	out := make([]string, len(transports))
	for i, t := range transports {
		out[i] = string(t)
	}
	return out
}
