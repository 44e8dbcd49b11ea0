package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
// Ownership mismatches are also reported as ErrNotFound so that an
// unauthorized caller cannot confirm the existence of another user's resource.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrDecryptionFailed indicates malformed or forged ciphertext, or a wrong key.
// Callers treat the affected credential as unusable rather than failing the request.
var ErrDecryptionFailed = errors.New("decryption failed")

// ErrCredentialUnavailable indicates a payment connection has no usable credential.
var ErrCredentialUnavailable = errors.New("credential unavailable")

// ErrProviderUnavailable indicates the external payment provider timed out or errored.
var ErrProviderUnavailable = errors.New("payment provider unavailable")
