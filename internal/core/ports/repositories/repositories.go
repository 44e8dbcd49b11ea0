package repositories

// RepositoryProvider bundles all repository implementations for injection into
// the service layer.
type RepositoryProvider struct {
	TxManager      TxManager
	UserRepo       UserRepository
	AuthConnRepo   AuthConnectionRepository
	CredentialRepo CredentialRepository
	ConnectionRepo ConnectionRepository
}
