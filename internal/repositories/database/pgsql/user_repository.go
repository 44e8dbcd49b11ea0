package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/core/domain"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
)

type PgxUserRepository struct {
	db DBTX
}

func newPgxUserRepository(db DBTX) portsrepo.UserRepository {
	return &PgxUserRepository{db: db}
}

var _ portsrepo.UserRepository = (*PgxUserRepository)(nil)

// WithTx returns a copy of the repository bound to the given transaction.
func (r *PgxUserRepository) WithTx(tx pgx.Tx) portsrepo.UserRepository {
	return &PgxUserRepository{db: tx}
}

const userColumns = `id, identifier, identifier_type, username, display_name, avatar_url, role, is_public, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Identifier,
		&u.IdentifierType,
		&u.Username,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Role,
		&u.IsPublic,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (id, identifier, identifier_type, username, display_name, avatar_url, role, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Identifier,
		user.IdentifierType,
		user.Username,
		user.DisplayName,
		user.AvatarURL,
		user.Role,
		user.IsPublic,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapSaveError(err, "user")
	}
	return nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find user by ID %s: %w", userID, err)
	}
	return user, nil
}

// FindUserByIdentifier matches case-insensitively; identifiers are stored as
// given but compared lowercased.
func (r *PgxUserRepository) FindUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(identifier) = $1;`
	user, err := scanUser(r.db.QueryRow(ctx, query, strings.ToLower(identifier)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find user by identifier: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = $1;`
	user, err := scanUser(r.db.QueryRow(ctx, query, strings.ToLower(username)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) UpdateAvatarURL(ctx context.Context, userID string, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $2, updated_at = $3 WHERE id = $1;`
	tag, err := r.db.Exec(ctx, query, userID, avatarURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update avatar for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepository) UpdateUsername(ctx context.Context, userID string, username string) error {
	query := `UPDATE users SET username = $2, updated_at = $3 WHERE id = $1;`
	tag, err := r.db.Exec(ctx, query, userID, username, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to update username for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxUserRepository) UpdateSettings(ctx context.Context, userID string, displayName *string, isPublic *bool) error {
	query := `
		UPDATE users SET
			display_name = COALESCE($2, display_name),
			is_public = COALESCE($3, is_public),
			updated_at = $4
		WHERE id = $1;
	`
	tag, err := r.db.Exec(ctx, query, userID, displayName, isPublic, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update settings for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
