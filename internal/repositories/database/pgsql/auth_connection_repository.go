package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
)

type PgxAuthConnectionRepository struct {
	db DBTX
}

func newPgxAuthConnectionRepository(db DBTX) portsrepo.AuthConnectionRepository {
	return &PgxAuthConnectionRepository{db: db}
}

var _ portsrepo.AuthConnectionRepository = (*PgxAuthConnectionRepository)(nil)

// WithTx returns a copy of the repository bound to the given transaction.
func (r *PgxAuthConnectionRepository) WithTx(tx pgx.Tx) portsrepo.AuthConnectionRepository {
	return &PgxAuthConnectionRepository{db: tx}
}

func (r *PgxAuthConnectionRepository) SaveAuthConnection(ctx context.Context, conn domain.AuthConnection) error {
	query := `
		INSERT INTO auth_connections (id, user_id, provider, provider_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.db.Exec(ctx, query,
		conn.ID,
		conn.UserID,
		conn.Provider,
		conn.ProviderUserID,
		conn.CreatedAt,
	)
	if err != nil {
		return mapSaveError(err, "auth connection")
	}
	return nil
}

func (r *PgxAuthConnectionRepository) FindByProviderUser(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.AuthConnection, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM auth_connections
		WHERE provider = $1 AND provider_user_id = $2;
	`
	var conn domain.AuthConnection
	err := r.db.QueryRow(ctx, query, provider, providerUserID).Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Provider,
		&conn.ProviderUserID,
		&conn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find auth connection for %s: %w", provider, err)
	}
	return &conn, nil
}

func (r *PgxAuthConnectionRepository) FindByUserID(ctx context.Context, userID string) ([]domain.AuthConnection, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM auth_connections
		WHERE user_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth connections for user %s: %w", userID, err)
	}
	defer rows.Close()

	var conns []domain.AuthConnection
	for rows.Next() {
		var conn domain.AuthConnection
		if err := rows.Scan(&conn.ID, &conn.UserID, &conn.Provider, &conn.ProviderUserID, &conn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan auth connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading auth connections: %w", err)
	}
	return conns, nil
}
