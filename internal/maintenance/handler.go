package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"

	"account-service/internal/auth"
	"account-service/internal/observability"
)

// CleanupHandler removes denylist rows for tokens that have expired on
// their own. It is meant to be hit by a cron scheduler and is guarded
// by a shared secret; without one the endpoint pretends not to exist.
type CleanupHandler struct {
	denylist   *auth.PostgresDenylist
	logger     *observability.Logger
	cronSecret string
	batchSize  int
}

func NewCleanupHandler(denylist *auth.PostgresDenylist, logger *observability.Logger, cronSecret string, batchSize int) *CleanupHandler {
	return &CleanupHandler{
		denylist:   denylist,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" || h.denylist == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	deleted, err := h.denylist.CleanupExpired(r.Context(), h.batchSize)
	if err != nil {
		h.logger.Error("denylist_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("denylist_cleanup_completed", map[string]any{
		"deleted_revoked_tokens": deleted,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":                 "ok",
		"deleted_revoked_tokens": deleted,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
