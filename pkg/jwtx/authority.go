package jwtx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Policy configures an Authority.
type Policy struct {
	Lifetime  time.Duration
	Leeway    time.Duration
	Algorithm Algorithm

	// Secret is the HMAC secret for HS* algorithms, or a PEM encoded private
	// key for RS256, ES256 and EdDSA.
	Secret []byte

	// Issuer is written to iss and enforced on validation when non-empty.
	Issuer string
}

// Option customises an Authority.
type Option func(*Authority)

// WithClock replaces the wall clock used for iat, exp and validation.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		if now != nil {
			a.now = now
		}
	}
}

// Authority issues and validates signed, time-bounded access tokens. It keeps
// no per-token state. Lifetime and leeway may be changed while the authority
// is in use; everything else is fixed at construction.
type Authority struct {
	alg       Algorithm
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	parser    *jwt.Parser
	now       func() time.Time

	lifetime atomic.Int64
	leeway   atomic.Int64
}

// NewAuthority validates p and builds an Authority from it.
func NewAuthority(p Policy, opts ...Option) (*Authority, error) {
	method, ok := methods[p.Algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, p.Algorithm)
	}
	if p.Lifetime <= 0 {
		return nil, fmt.Errorf("%w: lifetime must be positive", ErrInvalidPolicy)
	}
	if p.Leeway < 0 {
		return nil, fmt.Errorf("%w: leeway must not be negative", ErrInvalidPolicy)
	}

	sign, verify, err := p.Algorithm.keys(p.Secret)
	if err != nil {
		return nil, err
	}

	a := &Authority{
		alg:       p.Algorithm,
		method:    method,
		signKey:   sign,
		verifyKey: verify,
		issuer:    p.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
		now: time.Now,
	}
	a.lifetime.Store(int64(p.Lifetime))
	a.leeway.Store(int64(p.Leeway))

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Algorithm reports the signing algorithm in use.
func (a *Authority) Algorithm() Algorithm { return a.alg }

// Lifetime reports the lifetime applied to newly issued tokens.
func (a *Authority) Lifetime() time.Duration { return time.Duration(a.lifetime.Load()) }

// SetLifetime changes the lifetime of tokens issued from now on. Tokens
// already handed out keep the exp they were signed with.
func (a *Authority) SetLifetime(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: lifetime must be positive", ErrInvalidPolicy)
	}
	a.lifetime.Store(int64(d))
	return nil
}

// Leeway reports the grace period accepted past expiry.
func (a *Authority) Leeway() time.Duration { return time.Duration(a.leeway.Load()) }

// SetLeeway changes the grace period used by subsequent validations.
func (a *Authority) SetLeeway(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: leeway must not be negative", ErrInvalidPolicy)
	}
	a.leeway.Store(int64(d))
	return nil
}

// Issue signs a token for subject valid from now for the current lifetime.
func (a *Authority) Issue(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidClaim)
	}

	claims := NewClaims(subject, a.issuer, a.Lifetime(), a.now())
	signed, err := jwt.NewWithClaims(a.method, claims).SignedString(a.signKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return signed, nil
}

// Validate checks the signature and time bounds of token and returns its
// claims. Errors satisfy IsInvalid; errors.Is tells the kinds apart.
func (a *Authority) Validate(token string) (Claims, error) {
	var claims Claims
	_, err := a.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.verifyKey, nil
	})
	if err != nil {
		return Claims{}, a.classify(token, err)
	}

	if err := claims.ValidateRequired(); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateTimes(a.now(), a.Leeway()); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateIssuer(a.issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// classify maps jwt parse errors onto this package's kinds. A token signed
// with another algorithm fails the method check and reports ErrInvalidSig.
//
// The parser decodes the claims before it looks at the signature, so a
// tampered payload surfaces as malformed. Those tokens get their signature
// checked here so tampering is reported as ErrInvalidSig.
func (a *Authority) classify(token string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		if sigErr := a.verifySignature(token); sigErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSig, sigErr)
		}
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}

// verifySignature checks the signature of a three segment token whose header
// decodes. It returns nil when the token is not shaped that way, leaving the
// caller's malformed verdict in place.
func (a *Authority) verifySignature(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}

	rawHeader, err := a.parser.DecodeSegment(parts[0])
	if err != nil {
		return nil
	}
	var header map[string]any
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return nil
	}

	sig, err := a.parser.DecodeSegment(parts[2])
	if err != nil {
		return fmt.Errorf("signature segment: %w", err)
	}
	return a.method.Verify(parts[0]+"."+parts[1], sig, a.verifyKey)
}
