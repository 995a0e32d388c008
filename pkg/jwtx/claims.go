package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token policy values.
const (
	// DefaultLifetime is how long an issued token stays valid.
	DefaultLifetime = 30 * time.Minute

	// DefaultLeeway is the grace period past exp still accepted for clock skew.
	DefaultLeeway = 60 * time.Second
)

// Claims are the access-token claims. Only the registered set is used: the
// subject carries the identity the token was issued for.
type Claims struct {
	jwt.RegisteredClaims
}

// NewClaims builds claims for subject issued at now and expiring after ttl.
func NewClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateRequired ensures the claims every token must carry are present.
func (c *Claims) ValidateRequired() error {
	if c.Subject == "" {
		return ErrInvalidClaim
	}
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	return nil
}

// ValidateTimes checks exp with a grace period for clock skew. The leeway
// applies past expiry only; a token presented before its iat or nbf is
// rejected outright.
func (c *Claims) ValidateTimes(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.IssuedAt != nil && now.Before(c.IssuedAt.Time) {
		return ErrNotYetValid
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
