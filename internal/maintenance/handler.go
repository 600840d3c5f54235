// Package maintenance exposes the cron-triggered cleanup endpoint that
// sweeps expired lockout entries out of the attempt store.
package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"

	"auth-api/internal/attempt"
	"auth-api/internal/observability"
)

type CleanupHandler struct {
	attempts   attempt.Store
	logger     *observability.Logger
	cronSecret string
}

func NewCleanupHandler(attempts attempt.Store, logger *observability.Logger, cronSecret string) *CleanupHandler {
	return &CleanupHandler{
		attempts:   attempts,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Without a configured secret the endpoint does not exist.
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	dropped, err := h.attempts.SweepExpired(r.Context())
	if err != nil {
		h.logger.Error("attempt_sweep_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("attempt_sweep_completed", map[string]any{"dropped_entries": dropped})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"dropped_entries": dropped,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
