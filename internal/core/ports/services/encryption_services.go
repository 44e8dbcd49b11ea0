package services

// EncryptionSvc provides the two credential-protection schemes: sealed-box
// transit encryption for secrets crossing the browser-to-server hop, and
// symmetric authenticated storage encryption for secrets at rest. The two are
// not interchangeable; a client-encrypted blob is never persisted directly.
type EncryptionSvc interface {
	// EncryptForTransit seals plaintext to the configured transit public key.
	// Confidentiality only; no sender authentication.
	EncryptForTransit(plaintext string) (string, error)

	// DecryptTransit opens a sealed-box ciphertext with the transit private key.
	// Malformed input or a wrong key yields apperrors.ErrDecryptionFailed.
	DecryptTransit(ciphertext string) (string, error)

	// EncryptForStorage encrypts plaintext with the storage key under a fresh
	// random nonce (prepended to the output). Repeated plaintexts produce
	// distinct ciphertexts.
	EncryptForStorage(plaintext string) (string, error)

	// DecryptFromStorage is the inverse of EncryptForStorage. Tampered input
	// or a wrong key yields apperrors.ErrDecryptionFailed.
	DecryptFromStorage(ciphertext string) (string, error)
}
