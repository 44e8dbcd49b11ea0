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

type PgxCredentialRepository struct {
	db DBTX
}

func newPgxCredentialRepository(db DBTX) portsrepo.CredentialRepository {
	return &PgxCredentialRepository{db: db}
}

var _ portsrepo.CredentialRepository = (*PgxCredentialRepository)(nil)

// WithTx returns a copy of the repository bound to the given transaction.
func (r *PgxCredentialRepository) WithTx(tx pgx.Tx) portsrepo.CredentialRepository {
	return &PgxCredentialRepository{db: tx}
}

func (r *PgxCredentialRepository) SaveCredential(ctx context.Context, cred domain.Credential) error {
	query := `
		INSERT INTO credentials (id, user_id, public_key, counter, backed_up, transports, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.Exec(ctx, query,
		cred.ID,
		cred.UserID,
		cred.PublicKey,
		int64(cred.Counter),
		cred.BackedUp,
		cred.Transports,
		cred.CreatedAt,
	)
	if err != nil {
		return mapSaveError(err, "credential")
	}
	return nil
}

func (r *PgxCredentialRepository) FindCredentialByID(ctx context.Context, credentialID string) (*domain.Credential, error) {
	query := `
		SELECT id, user_id, public_key, counter, backed_up, transports, created_at
		FROM credentials
		WHERE id = $1;
	`
	cred, err := scanCredential(r.db.QueryRow(ctx, query, credentialID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	return cred, nil
}

func (r *PgxCredentialRepository) FindCredentialsByUserID(ctx context.Context, userID string) ([]domain.Credential, error) {
	query := `
		SELECT id, user_id, public_key, counter, backed_up, transports, created_at
		FROM credentials
		WHERE user_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials for user %s: %w", userID, err)
	}
	defer rows.Close()

	var creds []domain.Credential
	for rows.Next() {
		var cred domain.Credential
		var counter int64
		if err := rows.Scan(&cred.ID, &cred.UserID, &cred.PublicKey, &counter, &cred.BackedUp, &cred.Transports, &cred.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		cred.Counter = uint32(counter)
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading credentials: %w", err)
	}
	return creds, nil
}

func (r *PgxCredentialRepository) UpdateCounter(ctx context.Context, credentialID string, counter uint32) error {
	query := `UPDATE credentials SET counter = $2 WHERE id = $1;`
	tag, err := r.db.Exec(ctx, query, credentialID, int64(counter))
	if err != nil {
		return fmt.Errorf("failed to update credential counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	var cred domain.Credential
	var counter int64
	err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.PublicKey,
		&counter,
		&cred.BackedUp,
		&cred.Transports,
		&cred.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	cred.Counter = uint32(counter)
	return &cred, nil
}
