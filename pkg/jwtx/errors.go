package jwtx

import "errors"

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")

	ErrSigning          = errors.New("jwtx: signing failed")
	ErrUnknownAlgorithm = errors.New("jwtx: unknown algorithm")
	ErrInvalidKey       = errors.New("jwtx: invalid key material")
	ErrInvalidPolicy    = errors.New("jwtx: invalid token policy")
)

// IsInvalid reports whether err is one of the validation failures a caller
// should treat as "token not valid", as opposed to a configuration or
// signing problem.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrInvalidSig) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrNotYetValid) ||
		errors.Is(err, ErrInvalidClaim) ||
		errors.Is(err, ErrIssuer)
}
