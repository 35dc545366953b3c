package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bazaar-ads/internal/core/port"
)

// Handler is the inbound HTTP adapter for the ad engine. It is the thin
// caller surface for the discovery feed renderer, click tracking and
// merchant budget tooling; it holds no business logic of its own.
type Handler struct {
	engine port.PlacementEngine
	budget port.BudgetManager
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(engine port.PlacementEngine, budget port.BudgetManager, logger *slog.Logger) *Handler {
	h := &Handler{engine: engine, budget: budget, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ads/feed", h.handleDiscoveryFeed)
		r.Post("/ads/{campaignID}/click", h.handleAdClick)

		r.Get("/campaigns/{campaignID}/budget/daily", h.handleDailyBudget)
		r.Get("/campaigns/{campaignID}/forecast", h.handleForecast)

		r.Get("/merchants/{merchantID}/budget/report", h.handleBudgetReport)
		r.Post("/merchants/{merchantID}/budget/allocate", h.handleAllocateBudget)
		r.Get("/merchants/{merchantID}/placements/recommendations", h.handleRecommendations)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
