package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bazaar-ads/internal/core/port"
)

type clickRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// handleAdClick records a click on a campaign. It expects a {campaignID}
// path parameter and an optional JSON body identifying the user and
// session. Unknown campaigns result in HTTP 404.
func (h *Handler) handleAdClick(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	if campaignID == "" {
		http.Error(w, "missing campaign id", http.StatusBadRequest)
		return
	}

	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.engine.RecordAdClick(r.Context(), campaignID, req.UserID, req.SessionID); err != nil {
		if errors.Is(err, port.ErrCampaignNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("click error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
