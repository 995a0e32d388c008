package app

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/turnstile/pkg/cryptox"
	"github.com/aussiebroadwan/turnstile/pkg/jwtx"
)

// ephemeralSecretSize is the byte length of generated HMAC secrets.
const ephemeralSecretSize = 32

// LoadSigningSecret returns the key material for alg.
//
// Sources, in order:
//   - AUTH_TOKEN_SECRET, used as is.
//   - AUTH_TOKEN_SECRET_FILE, read from disk with surrounding whitespace
//     trimmed. For asymmetric algorithms the file holds a PEM private key.
//   - In dev only, a fresh secret or key generated at startup. Tokens signed
//     with it do not survive a restart.
func LoadSigningSecret(cfg Config, alg jwtx.Algorithm, logger *slog.Logger) ([]byte, error) {
	switch {
	case cfg.Secret != "":
		return []byte(cfg.Secret), nil

	case cfg.SecretFile != "":
		raw, err := os.ReadFile(cfg.SecretFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read token secret file: %w", err)
		}
		secret := bytes.TrimSpace(raw)
		if len(secret) == 0 {
			return nil, fmt.Errorf("token secret file %s is empty", cfg.SecretFile)
		}
		logger.Info("token secret loaded", "path", cfg.SecretFile, "algorithm", alg)
		return secret, nil

	case cfg.Env == "dev":
		secret, err := generateSecret(alg)
		if err != nil {
			return nil, err
		}
		logger.Warn("no token secret configured, generated an ephemeral one",
			"algorithm", alg,
		)
		logger.Warn("all existing tokens are now invalid due to key generation on startup")
		return secret, nil

	default:
		return nil, fmt.Errorf("no token secret configured for env %q", cfg.Env)
	}
}

func generateSecret(alg jwtx.Algorithm) ([]byte, error) {
	switch alg {
	case jwtx.RS256:
		return cryptox.GenerateSigningKey(cryptox.KeyRSA, cryptox.MinRSABits)
	case jwtx.ES256:
		return cryptox.GenerateSigningKey(cryptox.KeyP256, 0)
	case jwtx.EdDSA:
		return cryptox.GenerateSigningKey(cryptox.KeyEd25519, 0)
	default:
		s, err := cryptox.GenerateSecret(ephemeralSecretSize)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
}
