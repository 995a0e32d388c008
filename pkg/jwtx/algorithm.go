package jwtx

import (
	"crypto/ed25519"
	"crypto/elliptic"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is one of the closed set of JWS signing schemes the authority
// accepts. The same value must be used for issuance and validation.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
	ES256 Algorithm = "ES256"
	EdDSA Algorithm = "EdDSA"
)

var methods = map[Algorithm]jwt.SigningMethod{
	HS256: jwt.SigningMethodHS256,
	HS384: jwt.SigningMethodHS384,
	HS512: jwt.SigningMethodHS512,
	RS256: jwt.SigningMethodRS256,
	ES256: jwt.SigningMethodES256,
	EdDSA: jwt.SigningMethodEdDSA,
}

// ParseAlgorithm maps a configuration string onto an Algorithm.
// Matching is case-insensitive for the HMAC/RSA/ECDSA names.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(EdDSA)) {
		return EdDSA, nil
	}
	a := Algorithm(strings.ToUpper(s))
	if _, ok := methods[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
	return a, nil
}

// Symmetric reports whether a signs with a shared secret.
func (a Algorithm) Symmetric() bool {
	return a == HS256 || a == HS384 || a == HS512
}

// keys turns opaque key material into the signing and verification keys the
// jwt package expects. HMAC algorithms take the raw secret; the asymmetric
// ones take a PEM encoded private key and derive the public half.
func (a Algorithm) keys(material []byte) (sign, verify any, err error) {
	if len(material) == 0 {
		return nil, nil, fmt.Errorf("%w: empty secret", ErrInvalidKey)
	}

	switch a {
	case HS256, HS384, HS512:
		secret := make([]byte, len(material))
		copy(secret, material)
		return secret, secret, nil

	case RS256:
		k, err := jwt.ParseRSAPrivateKeyFromPEM(material)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return k, &k.PublicKey, nil

	case ES256:
		k, err := jwt.ParseECPrivateKeyFromPEM(material)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		if k.Curve != elliptic.P256() {
			return nil, nil, fmt.Errorf("%w: ES256 requires a P-256 key", ErrInvalidKey)
		}
		return k, &k.PublicKey, nil

	case EdDSA:
		raw, err := jwt.ParseEdPrivateKeyFromPEM(material)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		k, ok := raw.(ed25519.PrivateKey)
		if !ok {
			return nil, nil, fmt.Errorf("%w: not an Ed25519 key", ErrInvalidKey)
		}
		pub, _ := k.Public().(ed25519.PublicKey)
		return k, pub, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, a)
}
