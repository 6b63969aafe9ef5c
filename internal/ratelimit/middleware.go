package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"fieldserve-api/internal/httpsec"
)

// Middleware bounds request throughput per client address. Rate-limit headers
// are attached to every response, allowed or not. Counter-store faults follow
// the configured posture: fail-closed rejects with 429, fail-open lets the
// request through (an explicit choice, since fail-closed limiting against a
// dead store denies all traffic).
func (l *Limiter) Middleware(failOpen bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := l.Allow(r.Context(), httpsec.ClientIP(r))
		if err != nil {
			sentry.CaptureException(err)
			if failOpen {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			httpsec.WriteError(w, http.StatusTooManyRequests, "rate limiter unavailable")
			return
		}

		header := w.Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		header.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			httpsec.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
