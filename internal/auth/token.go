package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "fieldserve-api"

var (
	// ErrTokenInvalid covers every verification failure a caller is allowed
	// to see: bad signature, malformed payload, wrong issuer, wrong algorithm.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is kept distinct for logging only. Handlers surface it
	// to clients exactly like ErrTokenInvalid.
	ErrTokenExpired = errors.New("expired token")
)

// Claims are the identity facts carried by an access token.
type Claims struct {
	Subject  string
	Role     string
	TokenID  string
	IssuedAt time.Time
	Expiry   time.Time
}

// TokenService issues and verifies HS256-signed access tokens. Verification
// is a pure function of the token, the shared secret, and the clock.
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration

	nowFunc func() time.Time
}

func NewTokenService(secret string, defaultTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret is empty")
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}

	return &TokenService{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		nowFunc:    time.Now,
	}, nil
}

// Issue signs a token for the subject with the configured TTL. Pass a
// positive ttl to override the default for this call.
func (s *TokenService) Issue(subject, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	tokenID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := s.nowFunc().UTC()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  tokenID.String(),
		"iss":  tokenIssuer,
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return encoded, nil
}

// Verify parses and validates a token. Every failure mode collapses into
// ErrTokenInvalid except expiry, which is internally distinguishable as
// ErrTokenExpired; callers must not expose the difference.
func (s *TokenService) Verify(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrTokenInvalid
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.nowFunc().UTC() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !token.Valid {
		return Claims{}, ErrTokenInvalid
	}

	subject, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	tokenID, _ := claims["jti"].(string)
	if subject == "" || role == "" || tokenID == "" {
		return Claims{}, ErrTokenInvalid
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return Claims{}, ErrTokenInvalid
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return Claims{}, ErrTokenInvalid
	}

	return Claims{
		Subject:  subject,
		Role:     role,
		TokenID:  tokenID,
		IssuedAt: issuedAt.Time.UTC(),
		Expiry:   expiry.Time.UTC(),
	}, nil
}

// DefaultTTL reports the configured token lifetime.
func (s *TokenService) DefaultTTL() time.Duration {
	return s.defaultTTL
}
