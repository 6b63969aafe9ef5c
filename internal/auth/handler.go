package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"fieldserve-api/internal/httpsec"
)

var identityRegex = regexp.MustCompile(`^[a-z0-9_.@-]{3,64}$`)

const sessionCookieName = "fs_session"

type Handler struct {
	service      *Service
	guard        *CSRFGuard
	maxBodyBytes int64
}

func NewHandler(service *Service, guard *CSRFGuard, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{service: service, guard: guard, maxBodyBytes: maxBodyBytes}
}

type loginRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpsec.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		httpsec.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Identity = strings.TrimSpace(body.Identity)
	body.Password = strings.TrimSpace(body.Password)
	if !identityRegex.MatchString(strings.ToLower(body.Identity)) {
		httpsec.WriteError(w, http.StatusBadRequest, "identity format is invalid")
		return
	}
	if len(body.Password) < 8 || len(body.Password) > 200 {
		httpsec.WriteError(w, http.StatusBadRequest, "password format is invalid")
		return
	}

	tokens, err := h.service.Login(r.Context(), body.Identity, body.Password, httpsec.ClientIP(r))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpsec.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		var locked ErrAccountLocked
		if errors.As(err, &locked) {
			retryAfter := int(time.Until(locked.Until).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httpsec.WriteError(w, http.StatusLocked, "account temporarily locked")
			return
		}

		// Infrastructure faults deny authentication; the cause goes to
		// Sentry, never to the caller.
		sentry.CaptureException(err)
		httpsec.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	httpsec.WriteJSON(w, http.StatusOK, tokens)
}

// CSRFToken issues the anti-forgery token for the caller's session, creating
// the session cookie when the caller has none yet.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	sessionID := ensureSessionID(w, r)
	if sessionID == "" {
		httpsec.WriteError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	token, err := h.guard.Generate(sessionID)
	if err != nil {
		sentry.CaptureException(err)
		httpsec.WriteError(w, http.StatusInternalServerError, "failed to issue csrf token")
		return
	}

	httpsec.WriteJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

// Me echoes the verified claims of the calling token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpsec.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	httpsec.WriteJSON(w, http.StatusOK, map[string]any{
		"subject":    claims.Subject,
		"role":       claims.Role,
		"expires_at": claims.Expiry.Format(time.RFC3339),
	})
}

// RequireCSRF guards mutating routes: the X-CSRF-Token header must match the
// token issued to the caller's session.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := sessionIDFromRequest(r)
		token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
		if sessionID == "" || !h.guard.Validate(token, sessionID) {
			httpsec.WriteError(w, http.StatusForbidden, "csrf token mismatch")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionIDFromRequest reads the caller's stable session identifier: the
// X-Session-ID header for API clients, else the session cookie.
func sessionIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-ID")); id != "" {
		return id
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	if id := sessionIDFromRequest(r); id != "" {
		return id
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	return id.String()
}
