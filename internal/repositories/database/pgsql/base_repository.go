package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx. Repositories
// hold a DBTX so the same code runs pooled or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxTxManager implements TxManager on a pgx connection pool.
type PgxTxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a transaction manager backed by the given pool.
func NewTxManager(pool *pgxpool.Pool) portsrepo.TxManager {
	return &PgxTxManager{pool: pool}
}

var _ portsrepo.TxManager = (*PgxTxManager)(nil)

// WithinTx begins a transaction, invokes fn, and commits on nil error. The
// deferred rollback is a no-op after a successful commit.
func (m *PgxTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapSaveError translates storage conflicts into the shared sentinel so the
// service layer can react without knowing SQLSTATEs.
func mapSaveError(err error, what string) error {
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicate
	}
	return fmt.Errorf("failed to save %s: %w", what, err)
}
