package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CredentialSource maps an identity string to its stored credential. The
// implementation belongs to the directory layer.
type CredentialSource interface {
	Lookup(ctx context.Context, identity string) (Credential, error)
}

// Service drives the login path: lockout pre-check, credential verification,
// outcome recording, token issuance. Attempt-store faults degrade to a deny;
// authentication never fails open.
type Service struct {
	creds    CredentialSource
	attempts AttemptStore
	tokens   *TokenService
}

func NewService(creds CredentialSource, attempts AttemptStore, tokens *TokenService) *Service {
	return &Service{creds: creds, attempts: attempts, tokens: tokens}
}

// Login authenticates identity/password from the given source address. The
// lock state is checked before any credential comparison, so a locked account
// rejects even a correct password.
func (s *Service) Login(ctx context.Context, identity, password, source string) (Tokens, error) {
	identity = strings.TrimSpace(strings.ToLower(identity))
	password = strings.TrimSpace(password)

	if identity == "" || password == "" {
		return Tokens{}, ErrInvalidCredentials
	}

	status, err := s.attempts.Status(ctx, identity)
	if err != nil {
		return Tokens{}, fmt.Errorf("attempt status: %w", err)
	}
	if status.LockedUntil != nil {
		return Tokens{}, ErrAccountLocked{Until: *status.LockedUntil}
	}

	credential, err := s.creds.Lookup(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrUnknownIdentity) {
			return Tokens{}, s.recordFailure(ctx, identity, source)
		}
		return Tokens{}, fmt.Errorf("lookup credential: %w", err)
	}

	if !VerifyPassword(password, credential.PasswordHash) {
		return Tokens{}, s.recordFailure(ctx, identity, source)
	}

	if err := s.attempts.Record(ctx, identity, source, true); err != nil {
		return Tokens{}, fmt.Errorf("record login success: %w", err)
	}

	access, err := s.tokens.Issue(credential.Subject, credential.Role, 0)
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.DefaultTTL().Seconds()),
	}, nil
}

// recordFailure appends a failed attempt and reports the resulting rejection:
// ErrAccountLocked when this failure engaged the lock, ErrInvalidCredentials
// otherwise.
func (s *Service) recordFailure(ctx context.Context, identity, source string) error {
	if err := s.attempts.Record(ctx, identity, source, false); err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}

	status, err := s.attempts.Status(ctx, identity)
	if err != nil {
		return fmt.Errorf("attempt status after failure: %w", err)
	}
	if status.LockedUntil != nil {
		return ErrAccountLocked{Until: *status.LockedUntil}
	}

	return ErrInvalidCredentials
}
