package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/tipbit/tipbit-backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:      NewTxManager(dbPool),
		UserRepo:       newPgxUserRepository(dbPool),
		AuthConnRepo:   newPgxAuthConnectionRepository(dbPool),
		CredentialRepo: newPgxCredentialRepository(dbPool),
		ConnectionRepo: newPgxConnectionRepository(dbPool),
	}
}
