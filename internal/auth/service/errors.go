package service

import "errors"

var (
	ErrDuplicateIdentity  = errors.New("duplicate_identity")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRequest     = errors.New("invalid_request")

	// Infrastructure failures. These wrap the underlying cause.
	ErrHashingFailure = errors.New("hashing_failure")
	ErrStorageFailure = errors.New("storage_failure")
	ErrSigningFailure = errors.New("signing_failure")
)

// IsInfrastructure reports whether err is a failure of the machinery rather
// than a rejection of the caller's input.
func IsInfrastructure(err error) bool {
	return errors.Is(err, ErrHashingFailure) ||
		errors.Is(err, ErrStorageFailure) ||
		errors.Is(err, ErrSigningFailure)
}
