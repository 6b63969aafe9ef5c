package maintenance

import (
	"net/http"
	"strings"
	"time"

	"fieldserve-api/internal/auth"
	"fieldserve-api/internal/httpsec"
	"fieldserve-api/internal/observability"
)

// CleanupHandler prunes stale login-attempt rows on a cron schedule. It is
// disabled entirely unless a cron secret is configured.
type CleanupHandler struct {
	attempts  *auth.PostgresAttemptStore
	logger    *observability.Logger
	secret    string
	retention time.Duration
	batchSize int
}

func NewCleanupHandler(attempts *auth.PostgresAttemptStore, logger *observability.Logger, secret string, retention time.Duration, batchSize int) *CleanupHandler {
	return &CleanupHandler{
		attempts:  attempts,
		logger:    logger,
		secret:    strings.TrimSpace(secret),
		retention: retention,
		batchSize: batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" || h.attempts == nil {
		httpsec.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.secret {
		httpsec.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deleted, err := h.attempts.PruneStale(r.Context(), h.retention, h.batchSize)
	if err != nil {
		h.logger.Error("attempt_cleanup_failed", map[string]any{"error": err.Error()})
		httpsec.WriteError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.logger.Info("attempt_cleanup_completed", map[string]any{"deleted_login_attempts": deleted})

	httpsec.WriteJSON(w, http.StatusOK, map[string]any{
		"status":                 "ok",
		"deleted_login_attempts": deleted,
	})
}
