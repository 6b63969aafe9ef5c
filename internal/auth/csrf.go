package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// CSRFGuard issues per-session anti-forgery tokens. Its state is deliberately
// disjoint from the token-signing secret: compromising one reveals nothing
// about the other. One token is active per session; a new Generate call
// supersedes the previous one.
type CSRFGuard struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]csrfRecord

	nowFunc func() time.Time
}

type csrfRecord struct {
	token     string
	expiresAt time.Time
}

func NewCSRFGuard(ttl time.Duration) *CSRFGuard {
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &CSRFGuard{
		ttl:     ttl,
		tokens:  make(map[string]csrfRecord),
		nowFunc: time.Now,
	}
}

// Generate binds a fresh random token to sessionID, invalidating any token
// previously issued to that session.
func (g *CSRFGuard) Generate(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is empty")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := g.nowFunc().UTC()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(now)
	g.tokens[sessionID] = csrfRecord{token: token, expiresAt: now.Add(g.ttl)}

	return token, nil
}

// Validate reports whether token was issued for exactly this session and is
// still within its validity window.
func (g *CSRFGuard) Validate(token, sessionID string) bool {
	if token == "" || sessionID == "" {
		return false
	}

	now := g.nowFunc().UTC()

	g.mu.Lock()
	record, ok := g.tokens[sessionID]
	g.mu.Unlock()

	if !ok || now.After(record.expiresAt) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(record.token), []byte(token)) == 1
}

// pruneLocked drops expired records. Caller holds g.mu.
func (g *CSRFGuard) pruneLocked(now time.Time) {
	for sessionID, record := range g.tokens {
		if now.After(record.expiresAt) {
			delete(g.tokens, sessionID)
		}
	}
}
