package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bazaar-ads/internal/core/port"
)

// handleDailyBudget returns the campaign's current daily budget.
func (h *Handler) handleDailyBudget(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	daily, err := h.budget.CalculateDailyBudget(r.Context(), campaignID)
	if err != nil {
		h.budgetError(w, r, err)
		return
	}
	h.writeJSON(w, map[string]any{
		"campaign_id":  campaignID,
		"daily_budget": daily,
	})
}

// handleForecast returns the remaining-duration forecast for a campaign.
func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.budget.ForecastRemainingDuration(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		h.budgetError(w, r, err)
		return
	}
	h.writeJSON(w, forecast)
}

// handleBudgetReport returns the merchant's budget utilization report.
func (h *Handler) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.budget.GetBudgetUtilizationReport(r.Context(), chi.URLParam(r, "merchantID"))
	if err != nil {
		h.budgetError(w, r, err)
		return
	}
	h.writeJSON(w, report)
}

type allocateRequest struct {
	TotalBudget float64  `json:"total_budget"`
	CampaignIDs []string `json:"campaign_ids"`
	Strategy    string   `json:"strategy"`
}

// handleAllocateBudget splits a total budget across the merchant's
// campaigns. An unknown strategy or an empty campaign set is a client
// error; nothing is written in either case.
func (h *Handler) handleAllocateBudget(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	strategy, err := port.ParseAllocationStrategy(req.Strategy)
	if err != nil {
		http.Error(w, "unknown strategy", http.StatusBadRequest)
		return
	}

	allocation, err := h.budget.AllocateBudgetAcrossCampaigns(
		r.Context(), chi.URLParam(r, "merchantID"), req.TotalBudget, req.CampaignIDs, strategy)
	if err != nil {
		if errors.Is(err, port.ErrNoCampaigns) {
			http.Error(w, "no valid campaigns", http.StatusBadRequest)
			return
		}
		h.budgetError(w, r, err)
		return
	}
	h.writeJSON(w, allocation)
}

// handleRecommendations returns placement recommendations for a merchant's
// products.
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.engine.GetRecommendedPlacements(r.Context(), chi.URLParam(r, "merchantID"))
	if err != nil {
		h.budgetError(w, r, err)
		return
	}
	if recs == nil {
		recs = []port.PlacementRecommendation{}
	}
	h.writeJSON(w, recs)
}

func (h *Handler) budgetError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, port.ErrCampaignNotFound) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("budget endpoint error", slog.Any("error", err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
