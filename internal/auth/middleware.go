package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fieldserve-api/internal/httpsec"
	"fieldserve-api/internal/observability"
)

type claimsContextKey struct{}

// Middleware authenticates Bearer tokens on protected routes. Expired and
// otherwise-invalid tokens produce identical 401 responses; the distinction
// only reaches the log.
func Middleware(tokens *TokenService, logger *observability.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			httpsec.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httpsec.WriteError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, ErrTokenExpired) && logger != nil {
				logger.Info("token_expired", map[string]any{"path": r.URL.Path})
			}
			httpsec.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func withClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified claims placed by Middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(Claims)
	return claims, ok
}
