package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
)

type PgxConnectionRepository struct {
	db DBTX
}

func newPgxConnectionRepository(db DBTX) portsrepo.ConnectionRepository {
	return &PgxConnectionRepository{db: db}
}

var _ portsrepo.ConnectionRepository = (*PgxConnectionRepository)(nil)

// WithTx returns a copy of the repository bound to the given transaction.
func (r *PgxConnectionRepository) WithTx(tx pgx.Tx) portsrepo.ConnectionRepository {
	return &PgxConnectionRepository{db: tx}
}

// connectionSelect joins the generic row with all three detail tables; at most
// one branch matches per row, keyed by service_type.
const connectionSelect = `
	SELECT
		c.id, c.user_id, c.service_type, c.name, c.is_enabled, c.created_at, c.updated_at,
		s.id, s.strike_profile_id, s.handle, s.api_key, s.created_at, s.updated_at,
		k.id, k.coinos_username, k.api_key, k.created_at, k.updated_at,
		a.id, a.alby_id, a.access_token, a.refresh_token, a.created_at, a.updated_at
	FROM payment_connections c
	LEFT JOIN strike_connections s ON s.connection_id = c.id
	LEFT JOIN coinos_connections k ON k.connection_id = c.id
	LEFT JOIN alby_connections a ON a.connection_id = c.id
`

func scanConnectionWithDetail(row pgx.Row) (*domain.ConnectionWithDetail, error) {
	var conn domain.ConnectionWithDetail

	var (
		strikeID        *string
		strikeProfileID *string
		strikeHandle    *string
		strikeAPIKey    *string
		strikeCreatedAt *time.Time
		strikeUpdatedAt *time.Time

		coinosID        *string
		coinosUsername  *string
		coinosAPIKey    *string
		coinosCreatedAt *time.Time
		coinosUpdatedAt *time.Time

		albyID           *string
		albyExternalID   *string
		albyAccessToken  *string
		albyRefreshToken *string
		albyCreatedAt    *time.Time
		albyUpdatedAt    *time.Time
	)

	err := row.Scan(
		&conn.ID, &conn.UserID, &conn.ServiceType, &conn.Name, &conn.IsEnabled, &conn.CreatedAt, &conn.UpdatedAt,
		&strikeID, &strikeProfileID, &strikeHandle, &strikeAPIKey, &strikeCreatedAt, &strikeUpdatedAt,
		&coinosID, &coinosUsername, &coinosAPIKey, &coinosCreatedAt, &coinosUpdatedAt,
		&albyID, &albyExternalID, &albyAccessToken, &albyRefreshToken, &albyCreatedAt, &albyUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	if strikeID != nil {
		conn.Strike = &domain.StrikeConnection{
			ID:              *strikeID,
			ConnectionID:    conn.ID,
			StrikeProfileID: *strikeProfileID,
			Handle:          *strikeHandle,
			APIKey:          strikeAPIKey,
			CreatedAt:       *strikeCreatedAt,
			UpdatedAt:       *strikeUpdatedAt,
		}
	}
	if coinosID != nil {
		conn.Coinos = &domain.CoinosConnection{
			ID:             *coinosID,
			ConnectionID:   conn.ID,
			CoinosUsername: *coinosUsername,
			APIKey:         *coinosAPIKey,
			CreatedAt:      *coinosCreatedAt,
			UpdatedAt:      *coinosUpdatedAt,
		}
	}
	if albyID != nil {
		conn.Alby = &domain.AlbyConnection{
			ID:           *albyID,
			ConnectionID: conn.ID,
			AlbyID:       *albyExternalID,
			AccessToken:  *albyAccessToken,
			RefreshToken: albyRefreshToken,
			CreatedAt:    *albyCreatedAt,
			UpdatedAt:    *albyUpdatedAt,
		}
	}

	return &conn, nil
}

func (r *PgxConnectionRepository) FindConnectionByID(ctx context.Context, connectionID string) (*domain.ConnectionWithDetail, error) {
	query := connectionSelect + ` WHERE c.id = $1;`
	conn, err := scanConnectionWithDetail(r.db.QueryRow(ctx, query, connectionID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find connection %s: %w", connectionID, err)
	}
	return conn, nil
}

func (r *PgxConnectionRepository) FindConnectionsByUserID(ctx context.Context, userID string, enabledOnly bool) ([]domain.ConnectionWithDetail, error) {
	query := connectionSelect + ` WHERE c.user_id = $1`
	if enabledOnly {
		query += ` AND c.is_enabled`
	}
	query += ` ORDER BY c.created_at ASC;`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections for user %s: %w", userID, err)
	}
	defer rows.Close()

	var conns []domain.ConnectionWithDetail
	for rows.Next() {
		conn, err := scanConnectionWithDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading connections: %w", err)
	}
	return conns, nil
}

func (r *PgxConnectionRepository) FindLatestByUserAndService(ctx context.Context, userID string, serviceType domain.PaymentServiceType, enabledOnly bool) (*domain.ConnectionWithDetail, error) {
	query := connectionSelect + ` WHERE c.user_id = $1 AND c.service_type = $2`
	if enabledOnly {
		query += ` AND c.is_enabled`
	}
	query += ` ORDER BY c.created_at DESC LIMIT 1;`

	conn, err := scanConnectionWithDetail(r.db.QueryRow(ctx, query, userID, serviceType))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find latest %s connection: %w", serviceType, err)
	}
	return conn, nil
}

func (r *PgxConnectionRepository) SaveConnection(ctx context.Context, conn domain.PaymentConnection) error {
	query := `
		INSERT INTO payment_connections (id, user_id, service_type, name, is_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.Exec(ctx, query,
		conn.ID,
		conn.UserID,
		conn.ServiceType,
		conn.Name,
		conn.IsEnabled,
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err != nil {
		return mapSaveError(err, "payment connection")
	}
	return nil
}

func (r *PgxConnectionRepository) SaveStrikeConnection(ctx context.Context, detail domain.StrikeConnection) error {
	query := `
		INSERT INTO strike_connections (id, connection_id, strike_profile_id, handle, api_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.Exec(ctx, query,
		detail.ID,
		detail.ConnectionID,
		detail.StrikeProfileID,
		detail.Handle,
		detail.APIKey,
		detail.CreatedAt,
		detail.UpdatedAt,
	)
	if err != nil {
		return mapSaveError(err, "strike connection")
	}
	return nil
}

func (r *PgxConnectionRepository) SaveCoinosConnection(ctx context.Context, detail domain.CoinosConnection) error {
	query := `
		INSERT INTO coinos_connections (id, connection_id, coinos_username, api_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.db.Exec(ctx, query,
		detail.ID,
		detail.ConnectionID,
		detail.CoinosUsername,
		detail.APIKey,
		detail.CreatedAt,
		detail.UpdatedAt,
	)
	if err != nil {
		return mapSaveError(err, "coinos connection")
	}
	return nil
}

func (r *PgxConnectionRepository) SaveAlbyConnection(ctx context.Context, detail domain.AlbyConnection) error {
	query := `
		INSERT INTO alby_connections (id, connection_id, alby_id, access_token, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.Exec(ctx, query,
		detail.ID,
		detail.ConnectionID,
		detail.AlbyID,
		detail.AccessToken,
		detail.RefreshToken,
		detail.CreatedAt,
		detail.UpdatedAt,
	)
	if err != nil {
		return mapSaveError(err, "alby connection")
	}
	return nil
}

func (r *PgxConnectionRepository) UpdateConnection(ctx context.Context, connectionID string, name *string, isEnabled *bool) error {
	query := `
		UPDATE payment_connections SET
			name = COALESCE($2, name),
			is_enabled = COALESCE($3, is_enabled),
			updated_at = $4
		WHERE id = $1;
	`
	tag, err := r.db.Exec(ctx, query, connectionID, name, isEnabled, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update connection %s: %w", connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateStrikeAPIKey sets the stored ciphertext, including to NULL when apiKey
// is nil (credential removal).
func (r *PgxConnectionRepository) UpdateStrikeAPIKey(ctx context.Context, connectionID string, apiKey *string) error {
	query := `UPDATE strike_connections SET api_key = $2, updated_at = $3 WHERE connection_id = $1;`
	tag, err := r.db.Exec(ctx, query, connectionID, apiKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update strike api key for connection %s: %w", connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxConnectionRepository) UpdateCoinosAPIKey(ctx context.Context, connectionID string, apiKey string) error {
	query := `UPDATE coinos_connections SET api_key = $2, updated_at = $3 WHERE connection_id = $1;`
	tag, err := r.db.Exec(ctx, query, connectionID, apiKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update coinos api key for connection %s: %w", connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxConnectionRepository) UpdateAlbyTokens(ctx context.Context, connectionID string, accessToken *string, refreshToken domain.OptionalSecret) error {
	query := `
		UPDATE alby_connections SET
			access_token = COALESCE($2, access_token),
			refresh_token = CASE WHEN $3 THEN $4 ELSE refresh_token END,
			updated_at = $5
		WHERE connection_id = $1;
	`
	tag, err := r.db.Exec(ctx, query, connectionID, accessToken, refreshToken.Set, refreshToken.Value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update alby tokens for connection %s: %w", connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxConnectionRepository) DeleteConnection(ctx context.Context, connectionID string) error {
	query := `DELETE FROM payment_connections WHERE id = $1;`
	tag, err := r.db.Exec(ctx, query, connectionID)
	if err != nil {
		return fmt.Errorf("failed to delete connection %s: %w", connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxConnectionRepository) FindPrioritiesByOwnerID(ctx context.Context, ownerID string) ([]domain.ConnectionPriority, error) {
	query := `
		SELECT id, owner_id, connection_id, priority
		FROM connection_priorities
		WHERE owner_id = $1
		ORDER BY priority ASC;
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list priorities for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var priorities []domain.ConnectionPriority
	for rows.Next() {
		var p domain.ConnectionPriority
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.ConnectionID, &p.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan priority: %w", err)
		}
		priorities = append(priorities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading priorities: %w", err)
	}
	return priorities, nil
}

// ReplacePriorities is delete-then-insert: the new ranking fully supersedes the
// old one. Callers run it inside a transaction so readers never observe the gap.
func (r *PgxConnectionRepository) ReplacePriorities(ctx context.Context, ownerID string, connectionIDs []string) ([]domain.ConnectionPriority, error) {
	if _, err := r.db.Exec(ctx, `DELETE FROM connection_priorities WHERE owner_id = $1;`, ownerID); err != nil {
		return nil, fmt.Errorf("failed to clear priorities for owner %s: %w", ownerID, err)
	}

	insert := `
		INSERT INTO connection_priorities (id, owner_id, connection_id, priority)
		VALUES ($1, $2, $3, $4);
	`
	priorities := make([]domain.ConnectionPriority, 0, len(connectionIDs))
	for i, connectionID := range connectionIDs {
		p := domain.ConnectionPriority{
			ID:           uuid.NewString(),
			OwnerID:      ownerID,
			ConnectionID: connectionID,
			Priority:     i + 1,
		}
		if _, err := r.db.Exec(ctx, insert, p.ID, p.OwnerID, p.ConnectionID, p.Priority); err != nil {
			return nil, mapSaveError(err, "connection priority")
		}
		priorities = append(priorities, p)
	}
	return priorities, nil
}
