package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/turnstile/pkg/jwtx"
	"github.com/aussiebroadwan/turnstile/pkg/slogx"
)

// SessionService composes the credential store and the token authority into
// the register, login and token-check flows.
type SessionService struct {
	Credentials *CredentialStore
	Tokens      *jwtx.Authority
}

// TokenStatus is the outcome of checking a presented token.
type TokenStatus struct {
	Token     string
	Subject   string // empty unless Valid
	Valid     bool
	ExpiresAt time.Time
}

// Register creates a credential for identity.
func (s *SessionService) Register(ctx context.Context, identity, password string) error {
	if err := validateInput(identity, password); err != nil {
		return err
	}

	added, err := s.Credentials.Add(ctx, identity, password)
	if err != nil {
		return err
	}
	if !added {
		return ErrDuplicateIdentity
	}

	slogx.FromContext(ctx).Info("credential registered", slog.String("identity", identity))
	return nil
}

// Authenticate reports whether password is correct for identity.
func (s *SessionService) Authenticate(ctx context.Context, identity, password string) (bool, error) {
	return s.Credentials.Verify(ctx, identity, password)
}

// IssueToken signs an access token for identity without checking a password.
func (s *SessionService) IssueToken(identity string) (string, error) {
	token, err := s.Tokens.Issue(identity)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, jwtx.ErrInvalidClaim):
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	default:
		return "", fmt.Errorf("%w: %w", ErrSigningFailure, err)
	}
}

// Login authenticates identity and, on success, issues a token for it.
func (s *SessionService) Login(ctx context.Context, identity, password string) (string, error) {
	l := slogx.FromContext(ctx)

	ok, err := s.Authenticate(ctx, identity, password)
	if err != nil {
		return "", err
	}
	if !ok {
		l.Info("login rejected", slog.String("identity", identity))
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(identity)
}

// ValidateToken checks token. Any validation failure yields Valid false
// alongside the underlying jwtx error so callers can log the reason.
func (s *SessionService) ValidateToken(token string) (TokenStatus, error) {
	status := TokenStatus{Token: token}

	claims, err := s.Tokens.Validate(token)
	if err != nil {
		return status, err
	}

	status.Valid = true
	status.Subject = claims.Subject
	if claims.ExpiresAt != nil {
		status.ExpiresAt = claims.ExpiresAt.Time
	}
	return status, nil
}

func validateInput(identity, password string) error {
	switch {
	case strings.TrimSpace(identity) == "":
		return fmt.Errorf("%w: identity is required", ErrInvalidRequest)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidRequest)
	}
	return nil
}
