package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
	portssvc "github.com/tipbit/tipbit-backend/internal/core/ports/services"
	"github.com/tipbit/tipbit-backend/internal/dto"
	"github.com/tipbit/tipbit-backend/internal/gateways/strike"
)

// connectionService implements ConnectionSvcFacade. Inbound credentials are
// transit ciphertext; they are decrypted and immediately re-encrypted under
// the storage scheme, so plaintext secrets exist only transiently in memory.
type connectionService struct {
	txManager  portsrepo.TxManager
	connRepo   portsrepo.ConnectionRepository
	encryption portssvc.EncryptionSvc
	strikeSvc  *strike.Service
}

// NewConnectionService creates a new instance of connectionService.
func NewConnectionService(
	txManager portsrepo.TxManager,
	connRepo portsrepo.ConnectionRepository,
	encryption portssvc.EncryptionSvc,
	strikeSvc *strike.Service,
) portssvc.ConnectionSvcFacade {
	return &connectionService{
		txManager:  txManager,
		connRepo:   connRepo,
		encryption: encryption,
		strikeSvc:  strikeSvc,
	}
}

var _ portssvc.ConnectionSvcFacade = (*connectionService)(nil)

// reencrypt turns a transit ciphertext into a storage ciphertext.
func (s *connectionService) reencrypt(transitCiphertext string) (string, error) {
	plaintext, err := s.encryption.DecryptTransit(transitCiphertext)
	if err != nil {
		return "", err
	}
	return s.encryption.EncryptForStorage(plaintext)
}

// ownedConnection fetches a connection and enforces ownership. A connection
// owned by someone else is reported as missing, not as forbidden.
func (s *connectionService) ownedConnection(ctx context.Context, userID, connectionID string) (*domain.ConnectionWithDetail, error) {
	conn, err := s.connRepo.FindConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return conn, nil
}

func (s *connectionService) ListConnections(ctx context.Context, userID string) ([]dto.ConnectionResponse, error) {
	conns, err := s.connRepo.FindConnectionsByUserID(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	return dto.SanitizeConnections(conns), nil
}

func (s *connectionService) GetConnection(ctx context.Context, userID string, connectionID string) (*dto.ConnectionResponse, error) {
	conn, err := s.ownedConnection(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}
	resp := dto.SanitizeConnection(*conn)
	return &resp, nil
}

func (s *connectionService) GetLatestStrikeConnection(ctx context.Context, userID string) (*dto.ConnectionResponse, error) {
	conn, err := s.connRepo.FindLatestByUserAndService(ctx, userID, domain.ServiceStrike, true)
	if err != nil {
		return nil, err
	}
	resp := dto.SanitizeConnection(*conn)
	return &resp, nil
}

// ResolveActiveConnection walks the owner's priority ranking and returns the
// first enabled connection it covers. Owners without a usable ranking fall
// back to their oldest enabled connection.
func (s *connectionService) ResolveActiveConnection(ctx context.Context, ownerID string) (*domain.ConnectionWithDetail, error) {
	enabled, err := s.connRepo.FindConnectionsByUserID(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}
	if len(enabled) == 0 {
		return nil, apperrors.ErrNotFound
	}

	priorities, err := s.connRepo.FindPrioritiesByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.ConnectionWithDetail, len(enabled))
	for i := range enabled {
		byID[enabled[i].ID] = &enabled[i]
	}

	for _, p := range priorities {
		if conn, ok := byID[p.ConnectionID]; ok {
			return conn, nil
		}
	}

	// enabled is ordered by creation time ascending
	return &enabled[0], nil
}

func (s *connectionService) ListPriorities(ctx context.Context, ownerID string) ([]dto.PriorityResponse, error) {
	priorities, err := s.connRepo.FindPrioritiesByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toPriorityResponses(priorities), nil
}

func toPriorityResponses(priorities []domain.ConnectionPriority) []dto.PriorityResponse {
	out := make([]dto.PriorityResponse, len(priorities))
	for i, p := range priorities {
		out[i] = dto.PriorityResponse{
			ConnectionID: p.ConnectionID,
			Priority:     p.Priority,
		}
	}
	return out
}

// EncryptedCredential hands a connection's stored credential ciphertext to a
// gateway. This is the only read path that exposes stored credentials, and
// they stay encrypted; only gateways decrypt them.
func (s *connectionService) EncryptedCredential(ctx context.Context, connectionID string) (string, domain.PaymentServiceType, error) {
	conn, err := s.connRepo.FindConnectionByID(ctx, connectionID)
	if err != nil {
		return "", "", err
	}
	if !conn.IsEnabled {
		return "", "", apperrors.ErrNotFound
	}

	switch conn.ServiceType {
	case domain.ServiceStrike:
		if conn.Strike == nil || conn.Strike.APIKey == nil || *conn.Strike.APIKey == "" {
			return "", "", fmt.Errorf("connection %s has no strike credential: %w", connectionID, apperrors.ErrCredentialUnavailable)
		}
		return *conn.Strike.APIKey, domain.ServiceStrike, nil
	case domain.ServiceCoinos:
		if conn.Coinos == nil || conn.Coinos.APIKey == "" {
			return "", "", fmt.Errorf("connection %s has no coinos credential: %w", connectionID, apperrors.ErrCredentialUnavailable)
		}
		return conn.Coinos.APIKey, domain.ServiceCoinos, nil
	case domain.ServiceAlby:
		if conn.Alby == nil || conn.Alby.AccessToken == "" {
			return "", "", fmt.Errorf("connection %s has no alby credential: %w", connectionID, apperrors.ErrCredentialUnavailable)
		}
		return conn.Alby.AccessToken, domain.ServiceAlby, nil
	default:
		return "", "", apperrors.NewInternalServerError(fmt.Sprintf("unknown service type %q", conn.ServiceType))
	}
}

func (s *connectionService) CreateConnection(ctx context.Context, userID string, req dto.CreateConnectionRequest) (*dto.ConnectionResponse, error) {
	if !domain.IsValidPaymentServiceType(req.ServiceType) {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unsupported service type %q", req.ServiceType))
	}
	serviceType := domain.PaymentServiceType(req.ServiceType)

	serviceData, err := s.parseServiceData(serviceType, req.ServiceData)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conn := domain.PaymentConnection{
		ID:          uuid.NewString(),
		UserID:      userID,
		ServiceType: serviceType,
		Name:        req.Name,
		IsEnabled:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.connRepo.WithTx(tx)
		if err := repo.SaveConnection(ctx, conn); err != nil {
			return err
		}
		return s.saveDetail(ctx, repo, conn.ID, serviceData, now)
	})
	if err != nil {
		return nil, err
	}

	return s.GetConnection(ctx, userID, conn.ID)
}

// parseServiceData decodes the provider-specific payload and re-encrypts its
// transit-ciphertext credentials for storage.
func (s *connectionService) parseServiceData(serviceType domain.PaymentServiceType, raw json.RawMessage) (domain.ServiceData, error) {
	switch serviceType {
	case domain.ServiceStrike:
		var data dto.StrikeServiceDataRequest
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, apperrors.NewBadRequestError("invalid strike service data")
		}
		if data.StrikeProfileID == "" || data.Handle == "" {
			return nil, apperrors.NewBadRequestError("strike service data requires strikeProfileId and handle")
		}
		out := domain.StrikeServiceData{StrikeProfileID: data.StrikeProfileID, Handle: data.Handle}
		if data.APIKey != nil && *data.APIKey != "" {
			stored, err := s.reencrypt(*data.APIKey)
			if err != nil {
				return nil, err
			}
			out.APIKey = &stored
		}
		return out, nil

	case domain.ServiceCoinos:
		var data dto.CoinosServiceDataRequest
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, apperrors.NewBadRequestError("invalid coinos service data")
		}
		if data.CoinosUsername == "" || data.APIKey == "" {
			return nil, apperrors.NewBadRequestError("coinos service data requires coinosUsername and apiKey")
		}
		stored, err := s.reencrypt(data.APIKey)
		if err != nil {
			return nil, err
		}
		return domain.CoinosServiceData{CoinosUsername: data.CoinosUsername, APIKey: stored}, nil

	case domain.ServiceAlby:
		var data dto.AlbyServiceDataRequest
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, apperrors.NewBadRequestError("invalid alby service data")
		}
		if data.AlbyID == "" || data.AccessToken == "" {
			return nil, apperrors.NewBadRequestError("alby service data requires albyId and accessToken")
		}
		out := domain.AlbyServiceData{AlbyID: data.AlbyID}
		stored, err := s.reencrypt(data.AccessToken)
		if err != nil {
			return nil, err
		}
		out.AccessToken = stored
		if data.RefreshToken != nil && *data.RefreshToken != "" {
			refresh, err := s.reencrypt(*data.RefreshToken)
			if err != nil {
				return nil, err
			}
			out.RefreshToken = &refresh
		}
		return out, nil

	default:
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unsupported service type %q", serviceType))
	}
}

func (s *connectionService) saveDetail(ctx context.Context, repo portsrepo.ConnectionRepository, connectionID string, data domain.ServiceData, now time.Time) error {
	switch d := data.(type) {
	case domain.StrikeServiceData:
		return repo.SaveStrikeConnection(ctx, domain.StrikeConnection{
			ID:              uuid.NewString(),
			ConnectionID:    connectionID,
			StrikeProfileID: d.StrikeProfileID,
			Handle:          d.Handle,
			APIKey:          d.APIKey,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	case domain.CoinosServiceData:
		return repo.SaveCoinosConnection(ctx, domain.CoinosConnection{
			ID:             uuid.NewString(),
			ConnectionID:   connectionID,
			CoinosUsername: d.CoinosUsername,
			APIKey:         d.APIKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	case domain.AlbyServiceData:
		return repo.SaveAlbyConnection(ctx, domain.AlbyConnection{
			ID:           uuid.NewString(),
			ConnectionID: connectionID,
			AlbyID:       d.AlbyID,
			AccessToken:  d.AccessToken,
			RefreshToken: d.RefreshToken,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	default:
		return apperrors.NewInternalServerError(fmt.Sprintf("unhandled service data type %T", data))
	}
}

func (s *connectionService) UpdateConnection(ctx context.Context, userID string, connectionID string, req dto.UpdateConnectionRequest) (*dto.ConnectionResponse, error) {
	conn, err := s.ownedConnection(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.connRepo.WithTx(tx)
		if req.Name != nil || req.IsEnabled != nil {
			if err := repo.UpdateConnection(ctx, connectionID, req.Name, req.IsEnabled); err != nil {
				return err
			}
		}
		if req.ServiceData != nil {
			return s.patchServiceData(ctx, repo, conn, *req.ServiceData)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetConnection(ctx, userID, connectionID)
}

func (s *connectionService) patchServiceData(ctx context.Context, repo portsrepo.ConnectionRepository, conn *domain.ConnectionWithDetail, patch dto.ServiceDataPatchRequest) error {
	switch conn.ServiceType {
	case domain.ServiceStrike:
		apiKey, err := dto.TriState(patch.APIKey)
		if err != nil {
			return apperrors.NewBadRequestError("invalid apiKey value")
		}
		if !apiKey.Set {
			return nil
		}
		if apiKey.Value == nil {
			return repo.UpdateStrikeAPIKey(ctx, conn.ID, nil)
		}
		stored, err := s.reencrypt(*apiKey.Value)
		if err != nil {
			return err
		}
		return repo.UpdateStrikeAPIKey(ctx, conn.ID, &stored)

	case domain.ServiceCoinos:
		apiKey, err := dto.TriState(patch.APIKey)
		if err != nil {
			return apperrors.NewBadRequestError("invalid apiKey value")
		}
		if !apiKey.Set {
			return nil
		}
		if apiKey.Value == nil {
			// a coinos connection is unusable without its key
			return apperrors.NewBadRequestError("coinos connections require an api key")
		}
		stored, err := s.reencrypt(*apiKey.Value)
		if err != nil {
			return err
		}
		return repo.UpdateCoinosAPIKey(ctx, conn.ID, stored)

	case domain.ServiceAlby:
		var accessToken *string
		if patch.AccessToken != nil && *patch.AccessToken != "" {
			stored, err := s.reencrypt(*patch.AccessToken)
			if err != nil {
				return err
			}
			accessToken = &stored
		}
		refresh, err := dto.TriState(patch.RefreshToken)
		if err != nil {
			return apperrors.NewBadRequestError("invalid refreshToken value")
		}
		if refresh.Set && refresh.Value != nil {
			stored, err := s.reencrypt(*refresh.Value)
			if err != nil {
				return err
			}
			refresh.Value = &stored
		}
		if accessToken == nil && !refresh.Set {
			return nil
		}
		return repo.UpdateAlbyTokens(ctx, conn.ID, accessToken, refresh)

	default:
		return apperrors.NewInternalServerError(fmt.Sprintf("unknown service type %q", conn.ServiceType))
	}
}

func (s *connectionService) DeleteConnection(ctx context.Context, userID string, connectionID string) error {
	if _, err := s.ownedConnection(ctx, userID, connectionID); err != nil {
		return err
	}
	return s.connRepo.DeleteConnection(ctx, connectionID)
}

// ReorderConnections validates that every id belongs to the caller, then
// replaces the ranking in one transaction.
func (s *connectionService) ReorderConnections(ctx context.Context, userID string, connectionIDs []string) ([]dto.PriorityResponse, error) {
	owned, err := s.connRepo.FindConnectionsByUserID(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	ownedIDs := make(map[string]struct{}, len(owned))
	for _, conn := range owned {
		ownedIDs[conn.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(connectionIDs))
	for _, id := range connectionIDs {
		if _, ok := ownedIDs[id]; !ok {
			return nil, apperrors.ErrNotFound
		}
		if _, dup := seen[id]; dup {
			return nil, apperrors.NewBadRequestError("duplicate connection id in order")
		}
		seen[id] = struct{}{}
	}

	var priorities []domain.ConnectionPriority
	err = s.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		priorities, err = s.connRepo.WithTx(tx).ReplacePriorities(ctx, userID, connectionIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toPriorityResponses(priorities), nil
}

// ConnectStrike verifies the handle against the Strike API, then upserts: an
// existing connection for the same Strike profile is refreshed in place; when
// the profile changed, the old connection is deleted and a new one created in
// the same transaction.
func (s *connectionService) ConnectStrike(ctx context.Context, userID string, req dto.StrikeConnectRequest) (*dto.ConnectionResponse, error) {
	var storedKey *string
	cred := strike.ServiceCredential()
	if req.APIKey != nil && *req.APIKey != "" {
		stored, err := s.reencrypt(*req.APIKey)
		if err != nil {
			return nil, err
		}
		storedKey = &stored
		// verifying with the submitted key also proves the key works
		cred = strike.ConnectionCredential(stored)
	}

	profile, err := s.strikeSvc.FetchProfileByHandle(ctx, cred, req.Handle)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("strike handle %q not found", req.Handle))
		}
		return nil, err
	}
	if !profile.CanReceive {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("strike account %q cannot receive payments", req.Handle))
	}

	existing, err := s.findStrikeTarget(ctx, userID, req.ConnectionID)
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.Strike != nil && existing.Strike.StrikeProfileID == profile.ID {
		enabled := true
		err = s.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
			repo := s.connRepo.WithTx(tx)
			if err := repo.UpdateConnection(ctx, existing.ID, req.Name, &enabled); err != nil {
				return err
			}
			if storedKey != nil {
				return repo.UpdateStrikeAPIKey(ctx, existing.ID, storedKey)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return s.GetConnection(ctx, userID, existing.ID)
	}

	now := time.Now()
	conn := domain.PaymentConnection{
		ID:          uuid.NewString(),
		UserID:      userID,
		ServiceType: domain.ServiceStrike,
		Name:        req.Name,
		IsEnabled:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.txManager.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.connRepo.WithTx(tx)
		if existing != nil {
			// the verified profile no longer matches; the stale connection must
			// not survive alongside its replacement
			if err := repo.DeleteConnection(ctx, existing.ID); err != nil {
				return err
			}
		}
		if err := repo.SaveConnection(ctx, conn); err != nil {
			return err
		}
		return repo.SaveStrikeConnection(ctx, domain.StrikeConnection{
			ID:              uuid.NewString(),
			ConnectionID:    conn.ID,
			StrikeProfileID: profile.ID,
			Handle:          profile.Handle,
			APIKey:          storedKey,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetConnection(ctx, userID, conn.ID)
}

// findStrikeTarget picks the upsert target: the explicitly named connection,
// else the caller's newest Strike connection, else nothing.
func (s *connectionService) findStrikeTarget(ctx context.Context, userID string, connectionID *string) (*domain.ConnectionWithDetail, error) {
	if connectionID != nil {
		conn, err := s.ownedConnection(ctx, userID, *connectionID)
		if err != nil {
			return nil, err
		}
		if conn.ServiceType != domain.ServiceStrike {
			return nil, apperrors.NewBadRequestError("connection is not a strike connection")
		}
		return conn, nil
	}

	conn, err := s.connRepo.FindLatestByUserAndService(ctx, userID, domain.ServiceStrike, false)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
