package auth

import (
	"errors"
	"time"
)

// Credential is the stored verification material for one identity, supplied
// by the directory collaborator. Plaintext passwords are never stored.
type Credential struct {
	Subject      string
	Identity     string
	Role         string
	PasswordHash string
}

// Tokens is the login success payload.
type Tokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownIdentity is returned by CredentialSource implementations when
	// no credential exists for an identity. The login path folds it into
	// ErrInvalidCredentials so callers cannot probe for valid identities.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// ErrAccountLocked signals that the lockout threshold was reached and the
// lockout window is still active.
type ErrAccountLocked struct {
	Until time.Time
}

func (e ErrAccountLocked) Error() string {
	return "account temporarily locked"
}
