package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxManager runs a function inside a single database transaction. The callback
// receives the open transaction and threads it explicitly into repositories via
// their WithTx methods; operations never open a nested transaction implicitly.
type TxManager interface {
	// WithinTx begins a transaction, invokes fn, and commits on nil error.
	// Any error (or panic) rolls the transaction back fully.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}
