package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/platform/config"
)

func TestCeremonyStoreSingleUse(t *testing.T) {
	store := newCeremonyStore()
	store.put("c1", ceremonyEntry{kind: ceremonyRegister, expiresAt: time.Now().Add(time.Minute)})

	_, ok := store.take("c1", ceremonyRegister)
	require.True(t, ok)

	_, ok = store.take("c1", ceremonyRegister)
	assert.False(t, ok)
}

func TestCeremonyStoreKindMismatch(t *testing.T) {
	store := newCeremonyStore()
	store.put("c1", ceremonyEntry{kind: ceremonyRegister, expiresAt: time.Now().Add(time.Minute)})

	_, ok := store.take("c1", ceremonyLogin)
	assert.False(t, ok)

	// the mismatched take still consumed the entry
	_, ok = store.take("c1", ceremonyRegister)
	assert.False(t, ok)
}

func TestCeremonyStoreExpiry(t *testing.T) {
	store := newCeremonyStore()
	store.put("c1", ceremonyEntry{kind: ceremonyLogin, expiresAt: time.Now().Add(-time.Second)})

	_, ok := store.take("c1", ceremonyLogin)
	assert.False(t, ok)
}

func TestCeremonyStoreSweepsExpiredOnPut(t *testing.T) {
	store := newCeremonyStore()
	store.put("stale", ceremonyEntry{kind: ceremonyLogin, expiresAt: time.Now().Add(-time.Second)})
	store.put("fresh", ceremonyEntry{kind: ceremonyLogin, expiresAt: time.Now().Add(time.Minute)})

	store.mu.Lock()
	_, staleKept := store.entries["stale"]
	store.mu.Unlock()
	assert.False(t, staleKept)

	_, ok := store.take("fresh", ceremonyLogin)
	assert.True(t, ok)
}

func TestCeremonyStoreUnknownID(t *testing.T) {
	store := newCeremonyStore()

	_, ok := store.take("never-issued", ceremonyLogin)
	assert.False(t, ok)
}

func newTestWebAuthnService(t *testing.T) *webauthnService {
	t.Helper()
	cfg := &config.Config{
		WebAuthnRPID:          "localhost",
		WebAuthnRPDisplayName: "Tipbit Test",
		WebAuthnRPOrigins:     []string{"http://localhost:3000"},
	}
	svc, err := NewWebAuthnService(cfg, nil)
	require.NoError(t, err)
	return svc.(*webauthnService)
}

func TestBeginRegistrationRejectsInvalidUsername(t *testing.T) {
	svc := newTestWebAuthnService(t)

	_, err := svc.BeginRegistration(context.Background(), dto.PasskeyRegisterBeginRequest{Username: "no spaces"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.BeginRegistration(context.Background(), dto.PasskeyRegisterBeginRequest{Username: "dashboard"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBeginRegistrationIssuesCeremony(t *testing.T) {
	svc := newTestWebAuthnService(t)

	resp, err := svc.BeginRegistration(context.Background(), dto.PasskeyRegisterBeginRequest{Username: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.CeremonyID)
	assert.NotNil(t, resp.Options)

	entry, ok := svc.ceremonies.take(resp.CeremonyID, ceremonyRegister)
	require.True(t, ok)
	assert.Equal(t, "alice", entry.username)
	assert.WithinDuration(t, time.Now().Add(ceremonyTTL), entry.expiresAt, time.Minute)
}

func TestBeginDiscoverableAuthenticationIssuesCeremony(t *testing.T) {
	svc := newTestWebAuthnService(t)

	resp, err := svc.BeginAuthentication(context.Background(), dto.PasskeyAuthenticateBeginRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.CeremonyID)

	entry, ok := svc.ceremonies.take(resp.CeremonyID, ceremonyLogin)
	require.True(t, ok)
	assert.Empty(t, entry.username)
	assert.NotEmpty(t, entry.session.Challenge)
}
