package cryptox

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// KeyType selects the kind of asymmetric signing key to generate.
type KeyType string

const (
	KeyEd25519 KeyType = "ed25519"
	KeyP256    KeyType = "p256"
	KeyRSA     KeyType = "rsa"
)

// MinRSABits is the smallest RSA modulus GenerateSigningKey will produce.
const MinRSABits = 2048

var ErrUnknownKeyType = errors.New("cryptox: unknown key type")

// GenerateSecret returns size random bytes encoded as base64url without
// padding, suitable as an HMAC secret.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRandomnessFailed, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSigningKey creates a fresh private key of the given type and
// returns it PEM encoded in PKCS8 form. bits is only used for KeyRSA.
func GenerateSigningKey(kt KeyType, bits int) ([]byte, error) {
	var (
		key any
		err error
	)

	switch kt {
	case KeyEd25519:
		_, key, err = ed25519.GenerateKey(rand.Reader)
	case KeyP256:
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case KeyRSA:
		if bits < MinRSABits {
			return nil, fmt.Errorf("cryptox: RSA key size must be at least %d bits", MinRSABits)
		}
		key, err = rsa.GenerateKey(rand.Reader, bits)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyType, kt)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate %s key: %w", kt, err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
