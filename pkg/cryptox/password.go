package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Scheme names the adaptive hashing scheme a Hasher produces.
type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

// Fixed parameters of the argon2id scheme. Cost maps to the iteration count.
const (
	argon2Memory      = 19 * 1024 // KiB
	argon2Parallelism = 1
	argon2KeyLength   = 32
)

const (
	// SaltSize is the length of every credential salt, matching bcrypt's
	// 128-bit salt so both schemes persist the same shape.
	SaltSize = 16

	// DefaultBcryptCost is the work factor used when none is configured.
	DefaultBcryptCost = 13

	// DefaultArgon2Cost is the argon2id iteration count used when none is configured.
	DefaultArgon2Cost = 2

	bcryptMaxPassword = 72
)

var (
	ErrUnknownScheme    = errors.New("cryptox: unknown hashing scheme")
	ErrInvalidCost      = errors.New("cryptox: invalid cost factor")
	ErrPasswordTooLong  = errors.New("cryptox: password exceeds scheme limit")
	ErrMalformedHash    = errors.New("cryptox: malformed password hash")
	ErrSaltMismatch     = errors.New("cryptox: stored salt does not match hash")
	ErrSchemeMismatch   = errors.New("cryptox: hash produced by an unsupported scheme")
	ErrRandomnessFailed = errors.New("cryptox: failed to read random salt")
)

// bcrypt's own base64 variant, used for the 22 character salt segment.
var bcryptEncoding = base64.NewEncoding(
	"./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789",
).WithPadding(base64.NoPadding)

// Policy is the process-wide hashing configuration. It is copied into the
// Hasher on construction and never changes afterwards.
type Policy struct {
	Scheme Scheme
	Cost   int
}

// DefaultPolicy returns the default policy for a scheme.
func DefaultPolicy(s Scheme) Policy {
	if s == SchemeArgon2id {
		return Policy{Scheme: SchemeArgon2id, Cost: DefaultArgon2Cost}
	}
	return Policy{Scheme: SchemeBcrypt, Cost: DefaultBcryptCost}
}

// Hasher derives and checks salted password hashes under a fixed Policy.
// It is safe for concurrent use.
type Hasher struct {
	policy Policy

	dummyOnce sync.Once
	dummyHash string
	dummySalt []byte
}

// NewHasher validates p and returns a Hasher bound to it.
func NewHasher(p Policy) (*Hasher, error) {
	switch p.Scheme {
	case SchemeBcrypt:
		if p.Cost < bcrypt.MinCost || p.Cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%w: bcrypt cost %d outside [%d, %d]",
				ErrInvalidCost, p.Cost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case SchemeArgon2id:
		if p.Cost < 1 {
			return nil, fmt.Errorf("%w: argon2id cost %d must be at least 1", ErrInvalidCost, p.Cost)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, p.Scheme)
	}
	return &Hasher{policy: p}, nil
}

// Policy reports the policy the hasher was built with.
func (h *Hasher) Policy() Policy { return h.policy }

// Hash returns the encoded hash of password together with the fresh random
// salt that went into it.
func (h *Hasher) Hash(password string) (string, []byte, error) {
	switch h.policy.Scheme {
	case SchemeBcrypt:
		return h.hashBcrypt(password)
	default:
		return h.hashArgon2(password)
	}
}

// Verify recomputes the hash of password with the stored salt and reports
// whether it equals encoded. The scheme and cost recorded in encoded are
// used, not the hasher's policy, so hashes made under an older policy still
// verify. A non-nil error means the stored record itself is unusable, never
// that the password was wrong.
func (h *Hasher) Verify(password, encoded string, salt []byte) (bool, error) {
	if len(salt) != SaltSize {
		return false, fmt.Errorf("%w: salt is %d bytes", ErrMalformedHash, len(salt))
	}
	scheme, err := SchemeOf(encoded)
	if err != nil {
		return false, err
	}
	if scheme == SchemeBcrypt {
		return verifyBcrypt(password, encoded, salt)
	}
	return verifyArgon2(password, encoded, salt)
}

// SchemeOf reports which scheme produced encoded.
func SchemeOf(encoded string) (Scheme, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return SchemeArgon2id, nil
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return SchemeBcrypt, nil
	case strings.HasPrefix(encoded, "$"):
		return "", ErrSchemeMismatch
	default:
		return "", ErrMalformedHash
	}
}

// VerifyDummy runs one full comparison against a throwaway hash so that
// lookups for unknown identities cost the same as real ones.
func (h *Hasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, h.dummySalt, _ = h.Hash("turnstile-dummy-password")
	})
	if h.dummyHash == "" {
		return
	}
	_, _ = h.Verify(password, h.dummyHash, h.dummySalt)
}

func (h *Hasher) hashBcrypt(password string) (string, []byte, error) {
	if len(password) > bcryptMaxPassword {
		return "", nil, ErrPasswordTooLong
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.policy.Cost)
	if err != nil {
		return "", nil, fmt.Errorf("cryptox: bcrypt: %w", err)
	}

	encoded := string(out)
	salt, err := bcryptSalt(encoded)
	if err != nil {
		return "", nil, err
	}
	return encoded, salt, nil
}

func verifyBcrypt(password, encoded string, salt []byte) (bool, error) {
	embedded, err := bcryptSalt(encoded)
	if err != nil {
		return false, err
	}
	if subtle.ConstantTimeCompare(embedded, salt) != 1 {
		return false, ErrSaltMismatch
	}

	// Nothing over the limit can have been registered.
	if len(password) > bcryptMaxPassword {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
}

// bcryptSalt extracts the raw salt from "$2a$cc$<22 salt chars><31 hash chars>".
func bcryptSalt(encoded string) ([]byte, error) {
	if len(encoded) != 60 {
		return nil, ErrMalformedHash
	}
	salt, err := bcryptEncoding.DecodeString(encoded[7:29])
	if err != nil {
		return nil, fmt.Errorf("%w: salt segment: %w", ErrMalformedHash, err)
	}
	if len(salt) != SaltSize {
		return nil, ErrMalformedHash
	}
	return salt, nil
}

func (h *Hasher) hashArgon2(password string) (string, []byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrRandomnessFailed, err)
	}

	cost := uint32(h.policy.Cost) // #nosec G115 - validated >= 1 in NewHasher
	key := argon2.IDKey([]byte(password), salt, cost, argon2Memory, argon2Parallelism, argon2KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		cost,
		argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), salt, nil
}

func verifyArgon2(password, encoded string, salt []byte) (bool, error) {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, ErrMalformedHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return false, fmt.Errorf("%w: version %q", ErrMalformedHash, parts[2])
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return false, fmt.Errorf("%w: parameters: %w", ErrMalformedHash, err)
	}
	if iters < 1 || par < 1 {
		return false, fmt.Errorf("%w: parameters out of range", ErrMalformedHash)
	}

	embedded, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt segment: %w", ErrMalformedHash, err)
	}
	if subtle.ConstantTimeCompare(embedded, salt) != 1 {
		return false, ErrSaltMismatch
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, fmt.Errorf("%w: hash segment", ErrMalformedHash)
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - decoded hash is tiny
	)
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
