package httpsec

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON sanitizes the payload and encodes it with an application/json
// content type. All handlers respond through this path.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Sanitize(data))
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// ClientIP resolves the originating client address, preferring the first
// X-Forwarded-For hop when the request came through a proxy.
func ClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			ip := strings.TrimSpace(first)
			if ip != "" {
				return ip
			}
		}
	}

	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
